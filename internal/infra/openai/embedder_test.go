package openai

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPreprocess(t *testing.T) {
	assert.Equal(t, "a line with breaks", preprocess("a line\nwith\nbreaks"))
	assert.Equal(t, "no breaks", preprocess("no breaks"))
}

func TestSplitIntoWindows(t *testing.T) {
	t.Run("サイズ以下のテキストは1つのウィンドウになる", func(t *testing.T) {
		assert.Equal(t, []string{"abc"}, splitIntoWindows("abc", 5))
	})

	t.Run("サイズを超えるテキストは固定長で分割される", func(t *testing.T) {
		assert.Equal(t, []string{"abcde", "fghij", "kl"}, splitIntoWindows("abcdefghijkl", 5))
	})

	t.Run("マルチバイト文字は文字単位で分割される", func(t *testing.T) {
		got := splitIntoWindows("あいうえおかき", 3)
		assert.Equal(t, []string{"あいう", "えおか", "き"}, got)
	})
}

func TestMaxAggregate(t *testing.T) {
	t.Run("要素ごとの最大値を取る", func(t *testing.T) {
		got := maxAggregate([][]float32{
			{0.1, 0.9, -0.5},
			{0.8, 0.2, -0.1},
			{0.3, 0.4, -0.9},
		})
		assert.Equal(t, []float32{0.8, 0.9, -0.1}, got)
	})

	t.Run("平均ではなく最大値で集約する", func(t *testing.T) {
		got := maxAggregate([][]float32{
			{0.0},
			{1.0},
		})
		// 平均なら0.5になるところ
		assert.Equal(t, []float32{1.0}, got)
	})

	t.Run("ベクトルが1つならそのまま返す", func(t *testing.T) {
		got := maxAggregate([][]float32{{0.1, 0.2}})
		assert.Equal(t, []float32{0.1, 0.2}, got)
	})

	t.Run("空の入力はnil", func(t *testing.T) {
		assert.Nil(t, maxAggregate(nil))
	})
}
