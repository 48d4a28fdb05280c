// Package ptc holds application-wide defaults shared by the subpackages.
package ptc

const (
	// DefaultAppName names the binary, config lookup paths and log files.
	DefaultAppName = "ptc"

	// DefaultModelFile is the quantized phi-2 build looked for first when
	// scanning for models.
	DefaultModelFile = "phi-2.Q4_K_M.gguf"

	// DefaultModelsDir is scanned for .gguf files.
	DefaultModelsDir = "."

	// DefaultConfigPath is the user-level configuration directory.
	DefaultConfigPath = "$HOME/.config/ptc"
)
