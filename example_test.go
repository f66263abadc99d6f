package sodium

import "fmt"

func ExampleStreamSink() {
	clicks := NewStreamSink[string]()

	l := clicks.ListenValues(func(v string) {
		fmt.Println("clicked", v)
	})
	defer l.Unlisten()

	clicks.Send("ok")
	clicks.Send("cancel")

	// Output:
	// clicked ok
	// clicked cancel
}

func ExampleAccum() {
	add := NewStreamSink[int]()
	total := Accum(add.Stream, 0, func(v, acc int) int { return acc + v })

	l := total.ListenValues(func(v int) {
		fmt.Println("total", v)
	})
	defer l.Unlisten()

	add.Send(2)
	add.Send(3)

	// Output:
	// total 0
	// total 2
	// total 5
}

func ExampleCellLoop() {
	tick := NewStreamSink[struct{}]()

	var count *CellLoop[int]
	Run(func() {
		count = NewCellLoop[int]()
		next := Snapshot(tick.Stream, count.Cell, func(_ struct{}, n int) int { return n + 1 })
		count.Loop(next.Hold(0))
	})

	tick.Send(struct{}{})
	tick.Send(struct{}{})

	n, _ := count.Sample()
	fmt.Println(n)

	// Output:
	// 2
}

func ExampleRun() {
	a := NewCellSink(1)
	b := NewCellSink(2)
	sum := Lift2(func(x, y int) int { return x + y }, a.Cell, b.Cell)

	l := sum.ListenValues(func(v int) {
		fmt.Println("sum", v)
	})
	defer l.Unlisten()

	// both changes land in one transaction, so sum fires once
	Run(func() {
		a.Send(10)
		b.Send(20)
	})

	// Output:
	// sum 3
	// sum 30
}
