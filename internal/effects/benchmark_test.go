package effects

import "testing"

func BenchmarkEffectProcess(b *testing.B) {
	for _, typ := range Types {
		b.Run(typ.String(), func(b *testing.B) {
			fx, err := New(typ, 48000)
			if err != nil {
				b.Fatal(err)
			}
			x := float32(0.5)
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				x = -fx.Process(x)
			}
		})
	}
}
