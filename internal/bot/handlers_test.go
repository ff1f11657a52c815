package bot

import (
	"errors"
	"fmt"
	"testing"

	"kz-tracker/internal/domain"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestErrorMessages(t *testing.T) {
	b := &Bot{logger: zerolog.Nop()}

	tests := []struct {
		err  error
		want string
	}{
		{errNotRegistered, "Not registered"},
		{&domain.MapNotFoundError{Name: "kz_x"}, "Map not found"},
		{&domain.InvalidInputError{Reason: "invalid map name"}, "invalid map name"},
		{&domain.UpstreamUnavailableError{Service: "Steam"}, "Couldn't access Steam API"},
		{&domain.UpstreamUnavailableError{Service: "global API"}, "Couldn't access global API"},
		{&domain.MalformedResponseError{Service: "cs2kz API", Field: "values"}, "Couldn't access global API"},
		{errors.New("boom"), "Something went wrong"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, b.errorMessage(tt.err, zerolog.Nop()), "%v", tt.err)
	}
}

func TestErrorMessageAmbiguous(t *testing.T) {
	b := &Bot{logger: zerolog.Nop()}

	err := &domain.AmbiguousMapError{Name: "grotto", Candidates: []domain.Map{
		{Name: "kz_grotto_v2"}, {Name: "kz_grotto"},
	}}
	assert.Equal(t, "Multiple maps found: kz_grotto, kz_grotto_v2",
		b.errorMessage(err, zerolog.Nop()))

	var many []domain.Map
	for i := 0; i < 11; i++ {
		many = append(many, domain.Map{Name: fmt.Sprintf("kz_%d", i)})
	}
	assert.Equal(t, "More than 10 maps found",
		b.errorMessage(&domain.AmbiguousMapError{Name: "kz", Candidates: many}, zerolog.Nop()))
}

func TestResolveMode(t *testing.T) {
	reg := &domain.Registration{Mode: domain.ModeSKZ}

	mode, explicit := resolveMode(reg, options{})
	assert.Equal(t, domain.ModeSKZ, mode)
	assert.False(t, explicit)
}

func TestRunClassDefaultsToAny(t *testing.T) {
	assert.Equal(t, domain.RunAny, runClass(options{}))
}

func TestShouldFallBack(t *testing.T) {
	assert.True(t, shouldFallBack(&domain.MapNotFoundError{Name: "x"}))
	assert.True(t, shouldFallBack(&domain.UpstreamUnavailableError{Service: "global API"}))
	assert.False(t, shouldFallBack(&domain.InvalidInputError{Reason: "bad"}))
	assert.False(t, shouldFallBack(&domain.AmbiguousMapError{Name: "x"}))
}
