package ceremony

import (
	"testing"

	"github.com/taurusgroup/kzg-ceremony/internal/params"
	"github.com/taurusgroup/kzg-ceremony/internal/test"
	"github.com/taurusgroup/kzg-ceremony/pkg/engine"
	"github.com/taurusgroup/kzg-ceremony/pkg/identity"
	"github.com/taurusgroup/kzg-ceremony/pkg/pool"
)

var benchSizes = []params.Size{
	{NumG1Powers: 256, NumG2Powers: 16},
	{NumG1Powers: 512, NumG2Powers: 16},
}

// advanced returns a ceremony which already holds one round.
func advanced(b *testing.B, pl *pool.Pool) *BatchTranscript {
	bt, err := New(benchSizes)
	if err != nil {
		b.Fatal(err)
	}
	c := bt.Contribution()
	if err = c.AddEntropy(engine.Pairing{}, test.Entropy("first"), identity.None, pl); err != nil {
		b.Fatal(err)
	}
	if err = bt.VerifyAdd(c, identity.None, engine.Pairing{}, pl); err != nil {
		b.Fatal(err)
	}
	return bt
}

func BenchmarkVerifyAdd(b *testing.B) {
	pl := pool.NewPool(0)
	defer pl.TearDown()
	base := advanced(b, pl)
	id := identity.GitHub(1, "bench")

	for _, eng := range test.Engines() {
		b.Run(eng.Name(), func(b *testing.B) {
			for i := 0; i < b.N; i++ {
				b.StopTimer()
				bt := base.Clone()
				c := bt.Contribution()
				if err := c.AddEntropy(eng, test.RandomEntropy(), id, pl); err != nil {
					b.Fatal(err)
				}
				b.StartTimer()
				if err := bt.VerifyAdd(c, id, eng, pl); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}
