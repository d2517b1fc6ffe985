package outwriter

import (
	"os"

	"github.com/carbonlens/emforecast/internal/contract"
	"golang.org/x/term"
)

// getTerminalWidth returns the width override, the detected terminal width or 80.
func getTerminalWidth(cfg *contract.Config) int {
	if cfg.Width > 0 {
		return cfg.Width
	}
	detectedWidth, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || detectedWidth <= 0 {
		return 80 // Conservative default for narrow terminals and CI
	}
	return detectedWidth
}

// getMaxReasonWidth calculates the room left for the status column of the training table.
func getMaxReasonWidth(cfg *contract.Config) int {
	// Slot + Model + MAE + RMSE + R2 + AIC + Order with borders/padding
	baseWidth := 85

	available := getTerminalWidth(cfg) - baseWidth
	if available < 12 {
		return 12
	}
	if available > 60 {
		return 60
	}
	return available
}

// getMaxBarWidth calculates the length of the longest bar in the seasonality table.
func getMaxBarWidth(cfg *contract.Config) int {
	// Month + Average with borders/padding
	baseWidth := 30

	available := getTerminalWidth(cfg) - baseWidth
	if available < 10 {
		return 10
	}
	if available > 50 {
		return 50
	}
	return available
}
