package cloudsession

import (
	"testing"

	mrkrerrors "github.com/adverant/mrkr-core/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveConfig_Substitutes(t *testing.T) {
	t.Setenv("MRKR_TEST_BUCKET", "my-bucket")

	resolved, err := ResolveConfig("prefix-{{MRKR_TEST_BUCKET}}-suffix")
	require.NoError(t, err)
	assert.Equal(t, "prefix-my-bucket-suffix", resolved)
}

func TestResolveConfig_MissingVariableFails(t *testing.T) {
	_, err := ResolveConfig("{{MRKR_DOES_NOT_EXIST}}")
	require.Error(t, err)

	var structured *mrkrerrors.Error
	require.ErrorAs(t, err, &structured)
	assert.Equal(t, mrkrerrors.KindConfigResolutionError, structured.Kind)
}

func TestResolveConfig_NoPlaceholderIsUnchanged(t *testing.T) {
	resolved, err := ResolveConfig("plain-value")
	require.NoError(t, err)
	assert.Equal(t, "plain-value", resolved)
}
