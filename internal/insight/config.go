package insight

// Config holds generation settings per request kind. Zero values fall
// back to the provider defaults.
type Config struct {
	AskMaxTokens     int
	ExplainMaxTokens int
	Temperature      float64
}

// DefaultConfig returns the settings used by the dashboard.
func DefaultConfig() Config {
	return Config{
		AskMaxTokens:     1024,
		ExplainMaxTokens: 1500,
		Temperature:      0.7,
	}
}
