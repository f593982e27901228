package sharing

import (
	"github.com/anderspkd/ccs-DEN22/pkg/math/field"
	"github.com/anderspkd/ccs-DEN22/pkg/prg"
)

// ShareAdditive splits secret into n additive shares: the first n-1 are
// drawn from g and the last is adjusted so the sum equals the secret.
func ShareAdditive(secret field.Element, n int, g *prg.PRG) []field.Element {
	f := secret.Field()
	shares := make([]field.Element, n)
	sum := f.NewElement()
	for i := 0; i < n-1; i++ {
		shares[i] = g.Element(f)
		sum = sum.Add(shares[i])
	}
	shares[n-1] = secret.Sub(sum)
	return shares
}
