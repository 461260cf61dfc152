package benchmarks

// GetMicrobenchmarks returns the standard set of microbenchmarks. Each one
// stresses a different part of the translation path.
func GetMicrobenchmarks() []Benchmark {
	return []Benchmark{
		arithmeticLoop(),
		fibonacci(),
		memorySequential(),
		functionCalls(),
		branchHeavy(),
		codePatching(),
	}
}

// GetCoreBenchmarks returns a minimal set for quick validation.
func GetCoreBenchmarks() []Benchmark {
	return []Benchmark{
		arithmeticLoop(),
		branchHeavy(),
		codePatching(),
	}
}

// arithmeticLoop runs one hot block many times.
func arithmeticLoop() Benchmark {
	return Benchmark{
		Name:        "arithmetic_loop",
		Description: "1000 iterations of a three-instruction block",
		Source: `
				mov 0, r10
				movea 1000, r0, r20
			loop:
				add 1, r10
				add -1, r20
				bne loop
				halt
		`,
		Reg:      10,
		Expected: 1000,
	}
}

// fibonacci chains register dependencies through every instruction.
func fibonacci() Benchmark {
	return Benchmark{
		Name:        "fibonacci",
		Description: "F(20) with dependent moves and adds",
		Source: `
				mov 0, r10
				mov 1, r11
				mov 20, r20
			loop:
				mov r11, r12
				add r10, r12
				mov r11, r10
				mov r12, r11
				add -1, r20
				bne loop
				halt
		`,
		Reg:      10,
		Expected: 6765,
	}
}

// memorySequential fills an array and sums it back.
func memorySequential() Benchmark {
	return Benchmark{
		Name:        "memory_sequential",
		Description: "64 word stores followed by 64 loads",
		Source: `
				movea 0x2000, r0, r6
				mov 0, r7
				movea 64, r0, r20
			fill:
				st.w r7, 0[r6]
				add 1, r7
				add 4, r6
				add -1, r20
				bne fill
				movea 0x2000, r0, r6
				movea 64, r0, r20
				mov 0, r10
			sum:
				ld.w 0[r6], r8
				add r8, r10
				add 4, r6
				add -1, r20
				bne sum
				halt
		`,
		Reg:      10,
		Expected: 2016,
	}
}

// functionCalls exits every block through JARL or an indirect jump.
func functionCalls() Benchmark {
	return Benchmark{
		Name:        "function_calls",
		Description: "100 calls and returns through lp",
		Source: `
				mov 0, r10
				movea 100, r0, r20
			loop:
				jarl func, lp
				add -1, r20
				bne loop
				halt
			func:
				add 2, r10
				jmp [lp]
		`,
		Reg:      10,
		Expected: 200,
	}
}

// branchHeavy alternates between two paths every iteration.
func branchHeavy() Benchmark {
	return Benchmark{
		Name:        "branch_heavy",
		Description: "200 iterations alternating taken and not-taken branches",
		Source: `
				mov 0, r10
				mov 0, r11
				movea 200, r0, r20
			loop:
				andi 1, r20, r5
				bz even
				add 1, r11
				br next
			even:
				add 1, r10
			next:
				add -1, r20
				bne loop
				halt
		`,
		Reg:      10,
		Expected: 100,
	}
}

// codePatching rewrites its own code every iteration, so every block on
// the page is translated again.
func codePatching() Benchmark {
	return Benchmark{
		Name:        "code_patching",
		Description: "50 iterations that store over their own code page",
		Source: `
				movea 50, r0, r20
				mov 0, r10
			loop:
				jarl body, lp
				ld.h body[r0], r5
				st.h r5, body[r0]
				add -1, r20
				bne loop
				halt
			body:
				add 1, r10
				jmp [lp]
		`,
		Reg:      10,
		Expected: 50,
	}
}
