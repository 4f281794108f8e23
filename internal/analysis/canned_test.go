package analysis

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/kiranshivaraju/qualitylens/pkg/models"
)

func TestCannedMatchers(t *testing.T) {
	assert.True(t, IsGreeting("Olá!"))
	assert.True(t, IsGreeting("  bom dia  "))
	assert.False(t, IsGreeting("olá, me ajude com a rejeição"))
	assert.True(t, IsDefinition("O que é DPPM?"))
	assert.False(t, IsDefinition("qual o dppm de março?"))
	assert.True(t, IsContinuation("Agora me mostre por setor"))
}

func TestGreeting_TimeOfDay(t *testing.T) {
	tests := map[int]string{3: "Boa noite!", 9: "Bom dia!", 14: "Boa tarde!", 22: "Boa noite!"}
	for hour, want := range tests {
		res := Greeting(time.Date(2024, 1, 1, hour, 0, 0, 0, time.UTC))
		assert.Equal(t, models.StatusOK, res.Status)
		assert.Truef(t, strings.HasPrefix(res.Summary, want), "hour %d: %q", hour, res.Summary)
		assert.Len(t, res.Tips, 3)
	}
}
