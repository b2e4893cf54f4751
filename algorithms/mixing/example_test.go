package mixing_test

import (
	"fmt"

	"github.com/RyanBlaney/sonido-chords/algorithms/mixing"
)

func ExampleShifts() {
	fmt.Println(mixing.Shifts([]int{4, 2, 7}))
	// Output: [2 0 5]
}
