package dataset

import "math/rand"

// Sample builds the built-in demonstration dataset: 891 synthetic passenger
// records with injected missing values, so every analysis surface has
// something to show before a real upload. The generator is seeded, so the
// dataset is the same on every call.
func Sample() (*Dataset, error) {
	const (
		n           = 891
		missingAge  = 100
		missingPort = 10
	)
	rng := rand.New(rand.NewSource(42))

	age := &Column{Name: "age", Kind: KindNumeric, Floats: make([]float64, n), Null: make([]bool, n)}
	fare := &Column{Name: "fare", Kind: KindNumeric, Floats: make([]float64, n), Null: make([]bool, n)}
	sex := &Column{Name: "sex", Kind: KindCategorical, Strings: make([]string, n), Null: make([]bool, n)}
	survived := &Column{Name: "survived", Kind: KindNumeric, Integer: true, Floats: make([]float64, n), Null: make([]bool, n)}
	class := &Column{Name: "pclass", Kind: KindNumeric, Integer: true, Floats: make([]float64, n), Null: make([]bool, n)}
	port := &Column{Name: "embarked", Kind: KindCategorical, Strings: make([]string, n), Null: make([]bool, n)}

	sexes := []string{"male", "female"}
	ports := []string{"S", "C", "Q"}
	for i := 0; i < n; i++ {
		age.Floats[i] = rng.NormFloat64()*12 + 30
		fare.Floats[i] = rng.ExpFloat64() * 20
		sex.Strings[i] = sexes[rng.Intn(len(sexes))]
		survived.Floats[i] = float64(rng.Intn(2))
		class.Floats[i] = float64(rng.Intn(3) + 1)
		port.Strings[i] = ports[rng.Intn(len(ports))]
	}
	for _, i := range rng.Perm(n)[:missingAge] {
		age.Floats[i] = 0
		age.Null[i] = true
	}
	for _, i := range rng.Perm(n)[:missingPort] {
		port.Strings[i] = ""
		port.Null[i] = true
	}

	return New("sample", age, fare, sex, survived, class, port)
}
