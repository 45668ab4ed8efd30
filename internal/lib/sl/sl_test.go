package sl_test

import (
	"errors"
	"fmt"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/magabrotheeeer/team-portal/internal/lib/sl"
)

func TestErr_ReturnsCorrectAttr(t *testing.T) {
	err := errors.New("something went wrong")
	attr := sl.Err(err)

	assert.Equal(t, "error", attr.Key)
	assert.Equal(t, slog.StringValue("something went wrong"), attr.Value)
}

func TestErr_WrappedError(t *testing.T) {
	err := fmt.Errorf("%s: %w", "storage.CreateUser", errors.New("connection refused"))
	attr := sl.Err(err)

	assert.Equal(t, "storage.CreateUser: connection refused", attr.Value.String())
}

func TestErr_NilError(t *testing.T) {
	assert.NotPanics(t, func() {
		attr := sl.Err(nil)
		assert.Equal(t, "error", attr.Key)
		assert.Empty(t, attr.Value.String())
	})
}
