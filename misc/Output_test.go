package misc

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDebugFlagReload(t *testing.T) {
	t.Setenv("AGENTRELAY_DEBUG", "1")
	ReloadDebugFlag()
	require.True(t, DebugEnabled())

	t.Setenv("AGENTRELAY_DEBUG", "")
	ReloadDebugFlag()
	require.False(t, DebugEnabled())

	t.Setenv("AGENTRELAY_DEBUG", "true")
	ReloadDebugFlag()
	require.True(t, DebugEnabled())
}
