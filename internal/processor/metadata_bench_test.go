package processor

import (
	"strings"
	"testing"
)

func BenchmarkParseMetadata(b *testing.B) {
	line := `{"width":1920,"height":1080,"channels":3,"processingTime":0.0421,"speedup":3.7}`
	inputs := map[string][]byte{
		"single-line": []byte(line + "\n"),
		"noisy":       []byte(strings.Repeat("loading kernel...\n", 50) + line + "\n"),
	}
	for name, stdout := range inputs {
		name, stdout := name, stdout
		b.Run(name, func(b *testing.B) {
			b.SetBytes(int64(len(stdout)))
			for i := 0; i < b.N; i++ {
				if _, err := ParseMetadata(stdout); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}
