package browser

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"tirebot/utils"
)

func TestFindChromeBinaryPrefersEnv(t *testing.T) {
	t.Setenv("CHROME_BIN", "/opt/custom/chrome")
	require.Equal(t, "/opt/custom/chrome", findChromeBinary())
}

func TestNewDefaults(t *testing.T) {
	r := New(Options{}, utils.NewDiscardLogger())
	require.Equal(t, 60*time.Second, r.opts.Timeout)
	require.Equal(t, 4*time.Second, r.opts.Settle)
	require.NoError(t, r.Close())
}

func TestRenderMissingBinary(t *testing.T) {
	r := New(Options{ChromeBin: "/nonexistent/chrome-for-tests", Timeout: 5 * time.Second}, utils.NewDiscardLogger())
	defer r.Close()

	_, err := r.Render(context.Background(), "about:blank")
	require.Error(t, err)

	// The start failure is remembered.
	_, err = r.Render(context.Background(), "about:blank")
	require.Error(t, err)
}
