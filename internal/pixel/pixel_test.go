package pixel_test

import (
	"strconv"
	"testing"

	. "github.com/coreman2200/lumibed/internal/pixel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var packCases = []struct {
	Order  Order
	Expect uint32
}{
	{RGBOrder, 0x112233},
	{RBGOrder, 0x113322},
	{GRBOrder, 0x221133},
	{GBROrder, 0x223311},
	{BRGOrder, 0x331122},
	{BGROrder, 0x332211},
}

func TestOrderPack(t *testing.T) {
	c := RGB{R: 0x11, G: 0x22, B: 0x33}
	for k, v := range packCases {
		t.Run("Order"+strconv.Itoa(k), func(t *testing.T) {
			assert.Equal(t, v.Expect, v.Order.Pack(c), v.Order.String())
		})
	}
}

func TestOrderGetInvertsPut(t *testing.T) {
	c := RGB{R: 1, G: 2, B: 3}
	for o := RGBOrder; o <= BGROrder; o++ {
		var b [3]byte
		o.Put(b[:], c)
		assert.Equal(t, c, o.Get(b[:]), o.String())
	}
}

func TestInvalidOrderIsBlack(t *testing.T) {
	b := []byte{9, 9, 9}
	Order(7).Put(b, RGB{R: 255, G: 255, B: 255})
	assert.Equal(t, []byte{0, 0, 0}, b)
	assert.False(t, Order(6).Valid())
}

func TestParseOrder(t *testing.T) {
	o, err := ParseOrder("grb")
	require.NoError(t, err)
	assert.Equal(t, GRBOrder, o)

	_, err = ParseOrder("RGBW")
	assert.Error(t, err)
}

func TestScale8(t *testing.T) {
	assert.Equal(t, uint8(200), Scale8(200, 255))
	assert.Equal(t, uint8(0), Scale8(200, 0))
	assert.Equal(t, uint8(100), Scale8(200, 127))
	assert.Equal(t, uint8(199), Scale8(255, 199))
}

func TestHexAndAverage(t *testing.T) {
	c, err := Hex("#ff8000")
	require.NoError(t, err)
	assert.Equal(t, RGB{R: 255, G: 128}, c)
	assert.Equal(t, "#ff8000", c.String())

	avg := Average([]RGB{{R: 100}, {R: 200, B: 50}})
	assert.Equal(t, RGB{R: 150, B: 25}, avg)
	assert.Equal(t, Black, Average(nil))
}
