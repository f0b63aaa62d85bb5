package domain_test

import (
	"testing"

	"github.com/dom/impostor-game/internal/domain"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

func TestCodeOf(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode domain.ErrorCode
		wantOK   bool
	}{
		{name: "Sentinel", err: domain.ErrNotAdmin, wantCode: domain.CodeNotAdmin, wantOK: true},
		{name: "Wrapped", err: errors.Wrap(domain.ErrRoomNotFound, "join"), wantCode: domain.CodeRoomNotFound, wantOK: true},
		{name: "Infrastructure", err: errors.New("connection reset")},
		{name: "Nil"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, ok := domain.CodeOf(tt.err)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.wantCode, code)
		})
	}
}

func TestError_IsMatchesByCode(t *testing.T) {
	detailed := &domain.Error{Code: domain.CodeInvalidState, Message: "need at least 3 submitted words, have 1"}
	assert.ErrorIs(t, detailed, domain.ErrInvalidState)
	assert.NotErrorIs(t, detailed, domain.ErrNotAdmin)
}
