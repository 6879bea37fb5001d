package discount

import (
	"context"
	"testing"

	"github.com/go-faster/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockRepo struct {
	codes    map[string]Code
	err      error
	lastCode string
}

func (m *mockRepo) FindByCode(_ context.Context, code string) (*Code, error) {
	m.lastCode = code
	if m.err != nil {
		return nil, m.err
	}
	c, ok := m.codes[code]
	if !ok {
		return nil, ErrInvalidCode
	}
	return &c, nil
}

func newMockRepo() *mockRepo {
	codes := make(map[string]Code)
	for _, c := range DefaultCodes() {
		codes[c.Code] = c
	}
	codes["RETIRED"] = Code{Code: "RETIRED", Type: TypeFixed, Value: d("50"), Active: false}
	return &mockRepo{codes: codes}
}

func TestLookup_Apply(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		wantCode string
		wantErr  error
	}{
		{name: "known code", input: "SAVE10", wantCode: "SAVE10"},
		{name: "lower case and spaces are normalized", input: "  welcome5 ", wantCode: "WELCOME5"},
		{name: "free shipping code", input: "FreeShip", wantCode: "FREESHIP"},
		{name: "unknown code", input: "BOGUS", wantErr: ErrInvalidCode},
		{name: "empty code", input: "   ", wantErr: ErrInvalidCode},
		{name: "inactive code", input: "RETIRED", wantErr: ErrInvalidCode},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := NewLookup(newMockRepo())

			got, err := l.Apply(context.Background(), tt.input)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, got)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.wantCode, got.Code)
		})
	}
}

func TestLookup_RepositoryError(t *testing.T) {
	repo := newMockRepo()
	repo.err = errors.New("connection reset")

	_, err := NewLookup(repo).Apply(context.Background(), "SAVE10")

	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrInvalidCode)
	assert.Contains(t, err.Error(), "lookup discount code")
}
