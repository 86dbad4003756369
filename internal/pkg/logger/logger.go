package logger

import (
	"os"

	"github.com/rs/zerolog"
)

// New 建立模組用的zerolog logger，輸出JSON到stdout
func New(moduler string) zerolog.Logger {
	return zerolog.New(os.Stdout).
		With().
		Timestamp().
		Str("moduler", moduler).
		Logger()
}
