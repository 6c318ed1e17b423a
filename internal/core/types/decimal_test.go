package types

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRound2(t *testing.T) {
	assert.Equal(t, "10.13", Round2(MustMoney("10.125")).StringFixed(2))
	assert.Equal(t, "-10.13", Round2(MustMoney("-10.125")).StringFixed(2))
	assert.Equal(t, "210.00", Round2(MustMoney("1000").Mul(VATRate)).StringFixed(2))
}

func TestPercent(t *testing.T) {
	assert.True(t, Percent(MustMoney("200"), MustMoney("15")).Equal(MustMoney("30")))
	assert.True(t, Percent(MustMoney("99.99"), Zero()).IsZero())
}

func TestApproxEqual(t *testing.T) {
	assert.True(t, ApproxEqual(MustMoney("100.00"), MustMoney("100.01")))
	assert.False(t, ApproxEqual(MustMoney("100.00"), MustMoney("100.02")))
}

func TestDateOf(t *testing.T) {
	in := time.Date(2026, 3, 1, 23, 59, 0, 0, time.UTC)
	assert.Equal(t, "2026-03-01", FormatDate(DateOf(in)))

	d, err := ParseOptionalDate("")
	assert.NoError(t, err)
	assert.Nil(t, d)

	_, err = ParseDate("01/03/2026")
	assert.Error(t, err)
}
