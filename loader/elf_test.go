package loader_test

import (
	"encoding/binary"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/rh850sim/emu"
	"github.com/sarchlab/rh850sim/loader"
)

const (
	emV850  = 87
	emV800  = 36
	emX8664 = 62
)

// testSegment describes one program header of a generated ELF.
type testSegment struct {
	typ     uint32
	flags   uint32
	vaddr   uint32
	data    []byte
	memSize uint32
}

var _ = Describe("ELF Loader", func() {
	var tempDir string

	// MOV 5, r1; HALT
	code := []byte{0x05, 0x0a, 0xe0, 0x07, 0x20, 0x01}

	BeforeEach(func() {
		var err error
		tempDir, err = os.MkdirTemp("", "elf-loader-test")
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		_ = os.RemoveAll(tempDir)
	})

	path := func(name string) string {
		return filepath.Join(tempDir, name)
	}

	Describe("Load", func() {
		Context("with a valid RH850 ELF binary", func() {
			var elfPath string

			BeforeEach(func() {
				elfPath = path("test.elf")
				createELF32(elfPath, emV850, 0x1000, []testSegment{
					{typ: 1, flags: 0x5, vaddr: 0x1000, data: code},
				})
			})

			It("should extract the correct entry point", func() {
				prog, err := loader.Load(elfPath)
				Expect(err).NotTo(HaveOccurred())
				Expect(prog.EntryPoint).To(Equal(uint32(0x1000)))
			})

			It("should load the segment contents", func() {
				prog, err := loader.Load(elfPath)
				Expect(err).NotTo(HaveOccurred())
				Expect(prog.Segments).To(HaveLen(1))

				seg := prog.Segments[0]
				Expect(seg.VirtAddr).To(Equal(uint32(0x1000)))
				Expect(seg.Data).To(Equal(code))
				Expect(seg.MemSize).To(Equal(uint32(len(code))))
				Expect(seg.Flags & loader.SegmentFlagExecute).NotTo(BeZero())
				Expect(seg.Flags & loader.SegmentFlagRead).NotTo(BeZero())
				Expect(seg.Flags & loader.SegmentFlagWrite).To(BeZero())
			})
		})

		It("should accept the V800 machine number", func() {
			elfPath := path("v800.elf")
			createELF32(elfPath, emV800, 0x200, []testSegment{
				{typ: 1, flags: 0x5, vaddr: 0x200, data: code},
			})

			prog, err := loader.Load(elfPath)
			Expect(err).NotTo(HaveOccurred())
			Expect(prog.EntryPoint).To(Equal(uint32(0x200)))
		})

		It("should load multiple PT_LOAD segments", func() {
			elfPath := path("multi.elf")
			data := []byte{0x01, 0x02, 0x03, 0x04}
			createELF32(elfPath, emV850, 0x0, []testSegment{
				{typ: 1, flags: 0x5, vaddr: 0x0, data: code},
				{typ: 1, flags: 0x6, vaddr: 0xfedf0000, data: data},
			})

			prog, err := loader.Load(elfPath)
			Expect(err).NotTo(HaveOccurred())
			Expect(prog.Segments).To(HaveLen(2))
			Expect(prog.Segments[1].VirtAddr).To(Equal(uint32(0xfedf0000)))
			Expect(prog.Segments[1].Data).To(Equal(data))
			Expect(prog.Segments[1].Flags & loader.SegmentFlagWrite).NotTo(BeZero())
		})

		It("should handle BSS segments where Memsz > Filesz", func() {
			elfPath := path("bss.elf")
			createELF32(elfPath, emV850, 0x0, []testSegment{
				{typ: 1, flags: 0x6, vaddr: 0x8000, data: []byte{1, 2, 3, 4}, memSize: 1024},
				{typ: 1, flags: 0x6, vaddr: 0x9000, memSize: 4096},
			})

			prog, err := loader.Load(elfPath)
			Expect(err).NotTo(HaveOccurred())
			Expect(prog.Segments[0].MemSize).To(Equal(uint32(1024)))
			Expect(prog.Segments[1].Data).To(HaveLen(0))
			Expect(prog.Size()).To(Equal(uint64(1024 + 4096)))
		})

		It("should skip segments that are not PT_LOAD", func() {
			elfPath := path("note.elf")
			createELF32(elfPath, emV850, 0x400, []testSegment{
				{typ: 4, flags: 0x4},
			})

			prog, err := loader.Load(elfPath)
			Expect(err).NotTo(HaveOccurred())
			Expect(prog.Segments).To(BeEmpty())
			Expect(prog.EntryPoint).To(Equal(uint32(0x400)))
		})

		Context("with an invalid file", func() {
			It("should return error for non-existent file", func() {
				_, err := loader.Load("/nonexistent/path/to/file.elf")
				Expect(err).To(HaveOccurred())
				Expect(err.Error()).To(ContainSubstring("failed to open"))
			})

			It("should return error for non-ELF file", func() {
				notElf := path("not-elf.bin")
				Expect(os.WriteFile(notElf, []byte("not an elf file"), 0644)).To(Succeed())

				_, err := loader.Load(notElf)
				Expect(err).To(HaveOccurred())
				Expect(err.Error()).To(ContainSubstring("ELF"))
			})

			It("should return error for an x86-64 machine", func() {
				elfPath := path("x86.elf")
				createELF32(elfPath, emX8664, 0, nil)

				_, err := loader.Load(elfPath)
				Expect(err).To(HaveOccurred())
				Expect(err.Error()).To(ContainSubstring("not an RH850"))
			})

			It("should return error for a 64-bit ELF", func() {
				elfPath := path("elf64.elf")
				createMinimal64BitELF(elfPath)

				_, err := loader.Load(elfPath)
				Expect(err).To(HaveOccurred())
				Expect(err.Error()).To(ContainSubstring("not a 32-bit"))
			})

			It("should return error for an odd entry point", func() {
				elfPath := path("odd.elf")
				createELF32(elfPath, emV850, 0x1001, nil)

				_, err := loader.Load(elfPath)
				Expect(err).To(HaveOccurred())
				Expect(err.Error()).To(ContainSubstring("halfword"))
			})
		})
	})

	Describe("LoadBinary", func() {
		It("should place a flat image at the base address", func() {
			binPath := path("flat.bin")
			Expect(os.WriteFile(binPath, code, 0644)).To(Succeed())

			prog, err := loader.LoadBinary(binPath, 0x100)
			Expect(err).NotTo(HaveOccurred())
			Expect(prog.EntryPoint).To(Equal(uint32(0x100)))
			Expect(prog.Segments).To(HaveLen(1))
			Expect(prog.Segments[0].Data).To(Equal(code))
		})

		It("should reject an odd base", func() {
			_, err := loader.LoadBinary(path("flat.bin"), 0x101)
			Expect(err).To(HaveOccurred())
		})

		It("should return error for a missing file", func() {
			_, err := loader.LoadBinary(path("missing.bin"), 0)
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("failed to read"))
		})
	})

	Describe("LoadInto", func() {
		It("should copy data and zero the BSS tail", func() {
			mem := emu.NewMemory()
			mem.Write32(0x8004, 0xffffffff)

			prog := &loader.Program{Segments: []loader.Segment{
				{VirtAddr: 0x8000, Data: []byte{1, 2, 3, 4}, MemSize: 8},
			}}
			prog.LoadInto(mem)

			Expect(mem.Read32(0x8000)).To(Equal(uint32(0x04030201)))
			Expect(mem.Read32(0x8004)).To(Equal(uint32(0)))
		})
	})
})

// createELF32 writes a little-endian ELF32 executable with one program
// header per segment and the segment data packed after the headers.
func createELF32(path string, machine uint16, entry uint32, segs []testSegment) {
	const ehsize, phentsize = 52, 32

	elfHeader := make([]byte, ehsize)
	copy(elfHeader[0:4], []byte{0x7f, 'E', 'L', 'F'})
	elfHeader[4] = 1                                         // 32-bit
	elfHeader[5] = 1                                         // little endian
	elfHeader[6] = 1                                         // version
	binary.LittleEndian.PutUint16(elfHeader[16:18], 2)       // executable
	binary.LittleEndian.PutUint16(elfHeader[18:20], machine) // machine
	binary.LittleEndian.PutUint32(elfHeader[20:24], 1)       // version
	binary.LittleEndian.PutUint32(elfHeader[24:28], entry)   // entry
	binary.LittleEndian.PutUint32(elfHeader[28:32], ehsize)  // phoff
	binary.LittleEndian.PutUint16(elfHeader[40:42], ehsize)  // ehsize
	binary.LittleEndian.PutUint16(elfHeader[42:44], phentsize)
	binary.LittleEndian.PutUint16(elfHeader[44:46], uint16(len(segs))) // phnum

	offset := uint32(ehsize + phentsize*len(segs))
	var headers, payload []byte
	for _, s := range segs {
		memSize := s.memSize
		if memSize == 0 {
			memSize = uint32(len(s.data))
		}

		ph := make([]byte, phentsize)
		binary.LittleEndian.PutUint32(ph[0:4], s.typ)                 // type
		binary.LittleEndian.PutUint32(ph[4:8], offset)                // offset
		binary.LittleEndian.PutUint32(ph[8:12], s.vaddr)              // vaddr
		binary.LittleEndian.PutUint32(ph[12:16], s.vaddr)             // paddr
		binary.LittleEndian.PutUint32(ph[16:20], uint32(len(s.data))) // filesz
		binary.LittleEndian.PutUint32(ph[20:24], memSize)             // memsz
		binary.LittleEndian.PutUint32(ph[24:28], s.flags)             // flags
		binary.LittleEndian.PutUint32(ph[28:32], 4)                   // align

		headers = append(headers, ph...)
		payload = append(payload, s.data...)
		offset += uint32(len(s.data))
	}

	file, _ := os.Create(path)
	defer func() { _ = file.Close() }()
	_, _ = file.Write(elfHeader)
	_, _ = file.Write(headers)
	_, _ = file.Write(payload)
}

// createMinimal64BitELF creates a minimal 64-bit ELF to test rejection.
func createMinimal64BitELF(path string) {
	elfHeader := make([]byte, 64)

	copy(elfHeader[0:4], []byte{0x7f, 'E', 'L', 'F'})
	elfHeader[4] = 2                                    // 64-bit
	elfHeader[5] = 1                                    // little endian
	elfHeader[6] = 1                                    // version
	binary.LittleEndian.PutUint16(elfHeader[16:18], 2)  // executable
	binary.LittleEndian.PutUint16(elfHeader[18:20], 87) // V850
	binary.LittleEndian.PutUint32(elfHeader[20:24], 1)  // version
	binary.LittleEndian.PutUint16(elfHeader[52:54], 64) // ehsize

	file, _ := os.Create(path)
	defer func() { _ = file.Close() }()
	_, _ = file.Write(elfHeader)
}
