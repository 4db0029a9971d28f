// Package mock provides test doubles for the ai package interfaces.
//
// # Usage
//
//	// Default behavior
//	provider := mock.NewMockProvider()
//	label, err := provider.Classifier().Classify(ctx, img, "png")
//
//	// Custom behavior injection
//	classifier := mock.NewMockClassifier()
//	classifier.ClassifyFunc = func(ctx context.Context, image []byte, format string) (*ai.Label, error) {
//	    return nil, errors.New("model offline")
//	}
//
//	// Check call counts
//	count := classifier.CallCount()
//
// # Default Behavior
//
//   - MockClassifier: labels every image "photograph" with confidence 0.9
//   - MockTextRecognizer: returns "mock text" with confidence 0.9
//   - MockProvider: aggregates a mock classifier and recognizer
//
// Call counters are safe for concurrent use.
package mock
