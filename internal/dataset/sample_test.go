package dataset

import "testing"

func TestSampleShape(t *testing.T) {
	t.Parallel()

	ds, err := Sample()
	if err != nil {
		t.Fatalf("Sample: %v", err)
	}
	if ds.Rows() != 891 || ds.Cols() != 6 {
		t.Fatalf("shape = %dx%d, want 891x6", ds.Rows(), ds.Cols())
	}

	age, _ := ds.Column("age")
	if got := ds.Rows() - age.NonNull(); got != 100 {
		t.Fatalf("age missing = %d, want 100", got)
	}
	port, _ := ds.Column("embarked")
	if got := ds.Rows() - port.NonNull(); got != 10 {
		t.Fatalf("embarked missing = %d, want 10", got)
	}

	class, _ := ds.Column("pclass")
	if class.Kind != KindNumeric || !class.Integer {
		t.Fatalf("pclass kind = %v integer = %v", class.Kind, class.Integer)
	}
	sex, _ := ds.Column("sex")
	if sex.Kind != KindCategorical {
		t.Fatalf("sex kind = %v, want categorical", sex.Kind)
	}
}

func TestSampleIsDeterministic(t *testing.T) {
	t.Parallel()

	a, err := Sample()
	if err != nil {
		t.Fatalf("Sample: %v", err)
	}
	b, err := Sample()
	if err != nil {
		t.Fatalf("Sample: %v", err)
	}
	ca, _ := a.Column("fare")
	cb, _ := b.Column("fare")
	for i := range ca.Floats {
		if ca.Floats[i] != cb.Floats[i] {
			t.Fatalf("fare[%d] differs between runs: %v vs %v", i, ca.Floats[i], cb.Floats[i])
		}
	}
}
