package ratelimit_test

import (
	"context"
	"fmt"

	"benchkit/internal/ratelimit"
)

func ExampleNewPacer() {
	pacer := ratelimit.NewPacer(1000)

	ctx := context.Background()
	calls := 0
	for i := 0; i < 5; i++ {
		if err := pacer.Wait(ctx); err != nil {
			fmt.Println("cancelled")
			return
		}
		calls++
	}

	fmt.Printf("%d calls at %.0f/s\n", calls, pacer.Rate())
	// Output: 5 calls at 1000/s
}
