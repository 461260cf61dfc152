package config_test

import (
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/rh850sim/config"
)

var _ = Describe("Config", func() {
	Describe("Default", func() {
		It("should be valid", func() {
			Expect(config.Default().Validate()).To(Succeed())
		})

		It("should start at address zero", func() {
			c := config.Default()
			Expect(c.ResetPC).To(Equal(uint32(0)))
			Expect(c.PageSize).To(Equal(uint32(4096)))
			Expect(c.MaxInstructions).To(Equal(uint64(0)))
		})
	})

	Describe("Validate", func() {
		var c *config.Config

		BeforeEach(func() {
			c = config.Default()
		})

		DescribeTable("rejects",
			func(mutate func(*config.Config)) {
				mutate(c)
				Expect(c.Validate()).To(MatchError(config.ErrInvalid))
			},
			Entry("odd reset PC", func(c *config.Config) { c.ResetPC = 0x101 }),
			Entry("zero block length", func(c *config.Config) { c.MaxInsnsPerBlock = 0 }),
			Entry("negative op budget", func(c *config.Config) { c.MaxOpsPerBlock = -1 }),
			Entry("page size not a power of two", func(c *config.Config) { c.PageSize = 3000 }),
			Entry("tiny page", func(c *config.Config) { c.PageSize = 8 }),
			Entry("no block cache sets", func(c *config.Config) { c.BlockCacheSets = 0 }),
			Entry("no block cache ways", func(c *config.Config) { c.BlockCacheWays = 0 }),
			Entry("odd fetch line", func(c *config.Config) { c.FetchLineSize = 24 }),
			Entry("fetch cache smaller than a set", func(c *config.Config) { c.FetchCacheSize = 64 }),
			Entry("ragged fetch cache", func(c *config.Config) { c.FetchCacheSize = 16*1024 + 32 }),
		)

		It("should accept an unlimited op budget", func() {
			c.MaxOpsPerBlock = 0
			Expect(c.Validate()).To(Succeed())
		})
	})

	Describe("Clone", func() {
		It("should not share state with the original", func() {
			original := config.Default()
			clone := original.Clone()
			clone.ResetPC = 0x100

			Expect(original.ResetPC).To(Equal(uint32(0)))
			Expect(clone.ResetPC).To(Equal(uint32(0x100)))
		})
	})

	Describe("File Operations", func() {
		var tempDir string

		BeforeEach(func() {
			var err error
			tempDir, err = os.MkdirTemp("", "config-test")
			Expect(err).NotTo(HaveOccurred())
		})

		AfterEach(func() {
			_ = os.RemoveAll(tempDir)
		})

		It("should save and load config", func() {
			original := config.Default()
			original.ResetPC = 0x2000
			original.MaxInsnsPerBlock = 16

			path := filepath.Join(tempDir, "rh850sim.json")
			Expect(original.Save(path)).To(Succeed())

			loaded, err := config.Load(path)
			Expect(err).NotTo(HaveOccurred())
			Expect(loaded).To(Equal(original))
		})

		It("should keep defaults for omitted fields", func() {
			path := filepath.Join(tempDir, "partial.json")
			Expect(os.WriteFile(path, []byte(`{"reset_pc": 256}`), 0644)).To(Succeed())

			loaded, err := config.Load(path)
			Expect(err).NotTo(HaveOccurred())
			Expect(loaded.ResetPC).To(Equal(uint32(256)))
			Expect(loaded.MaxInsnsPerBlock).To(Equal(512))
		})

		It("should return error for non-existent file", func() {
			_, err := config.Load("/nonexistent/path/rh850sim.json")
			Expect(err).To(HaveOccurred())
		})

		It("should return error for invalid JSON", func() {
			path := filepath.Join(tempDir, "invalid.json")
			Expect(os.WriteFile(path, []byte("not valid json"), 0644)).To(Succeed())

			_, err := config.Load(path)
			Expect(err).To(HaveOccurred())
		})
	})
})
