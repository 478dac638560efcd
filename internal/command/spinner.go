package command

import (
	"os"
	"time"

	"github.com/briandowns/spinner"
)

// Spin shows a spinner on the standard error while fn runs.
// Nothing is shown when the standard error is not a terminal.
func Spin(message string, fn func() error) error {
	s := spinner.New(
		spinner.CharSets[14], 100*time.Millisecond,
		spinner.WithWriterFile(os.Stderr),
		spinner.WithSuffix(" "+message),
		spinner.WithHiddenCursor(true),
	)

	s.Start()
	defer s.Stop()

	return fn()
}
