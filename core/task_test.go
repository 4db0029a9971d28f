package core

import (
	"errors"
	"testing"
)

func TestFileTaskLifecycle(t *testing.T) {
	t.Run("success path", func(t *testing.T) {
		task := NewFileTask("/data/a.txt", KindDocument)
		if task.Status != StatusPending {
			t.Fatalf("new task status = %s", task.Status)
		}
		if err := task.Claim(); err != nil {
			t.Fatal(err)
		}
		for i := 0; i < 3; i++ {
			if err := task.BeginAttempt(); err != nil {
				t.Fatal(err)
			}
		}
		if task.Attempts != 3 {
			t.Errorf("attempts = %d, want 3", task.Attempts)
		}
		if err := task.Succeed(); err != nil {
			t.Fatal(err)
		}
		if !task.Status.Terminal() {
			t.Errorf("succeeded must be terminal")
		}
	})

	t.Run("failure path", func(t *testing.T) {
		task := NewFileTask("/data/a.png", KindImage)
		if err := task.Claim(); err != nil {
			t.Fatal(err)
		}
		if err := task.Fail(); err != nil {
			t.Fatal(err)
		}
		if task.Status != StatusFailed {
			t.Errorf("status = %s, want failed", task.Status)
		}
	})

	t.Run("illegal transitions", func(t *testing.T) {
		task := NewFileTask("/data/a.txt", KindDocument)
		if err := task.BeginAttempt(); !errors.Is(err, ErrInvalidTransition) {
			t.Errorf("attempt on pending task: got %v", err)
		}
		if err := task.Succeed(); !errors.Is(err, ErrInvalidTransition) {
			t.Errorf("succeed on pending task: got %v", err)
		}
		if err := task.Claim(); err != nil {
			t.Fatal(err)
		}
		if err := task.Claim(); !errors.Is(err, ErrInvalidTransition) {
			t.Errorf("double claim: got %v", err)
		}
		if err := task.Fail(); err != nil {
			t.Fatal(err)
		}
		if err := task.Succeed(); !errors.Is(err, ErrInvalidTransition) {
			t.Errorf("succeed after fail: got %v", err)
		}
		if err := task.BeginAttempt(); !errors.Is(err, ErrInvalidTransition) {
			t.Errorf("attempt after fail: got %v", err)
		}
	})
}
