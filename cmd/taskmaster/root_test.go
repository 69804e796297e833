package main

import (
	"os"
	"path/filepath"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/xuri/excelize/v2"
)

var _ = Describe("taskmaster command", func() {
	execute := func(args ...string) error {
		root := newRootCmd()
		root.SetArgs(args)
		root.SetOut(GinkgoWriter)
		root.SetErr(GinkgoWriter)
		return root.Execute()
	}

	It("should load defaults, flags and environment", func() {
		// Arrange
		GinkgoT().Setenv("TASKMASTER_ENGINE_CHUNK_SIZE", "77")
		GinkgoT().Setenv("TASKMASTER_LOG_LEVEL", "warn")
		GinkgoT().Setenv("TASKMASTER_ENGINE_MAX_WORKERS", "8")

		a := &app{v: viper.New()}
		fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
		registerFlags(fs)
		Expect(a.v.BindPFlags(fs)).To(Succeed())
		Expect(fs.Parse([]string{"--engine.workers", "3", "--engine.backoff-max", "5ms"})).To(Succeed())

		// Act
		err := a.load()

		// Assert
		Expect(err).NotTo(HaveOccurred())
		Expect(a.cfg.Engine.Workers).To(Equal(3))
		Expect(a.cfg.Engine.ChunkSize).To(Equal(77))
		Expect(a.cfg.Engine.BackoffMax).To(Equal(5 * time.Millisecond))
		Expect(a.cfg.Engine.BackoffInitial).To(Equal(50 * time.Microsecond))
		Expect(a.cfg.LogLevel).To(Equal("warn"))
		Expect(a.cfg.Engine.MaxWorkers).To(Equal(8))
		Expect(a.cfg.Engine.MaxFieldCells).To(Equal(1 << 24))
		Expect(a.cfg.Runs.MaxConcurrent).To(Equal(2))
	})

	It("should list an empty in-memory ledger", func() {
		Expect(execute("runs", "list", "--limit", "1")).To(Succeed())
	})

	It("should reject a worker count above the cap", func() {
		err := execute("--engine.workers", "9", "--engine.max-workers", "8", "runs", "list")

		Expect(err).To(MatchError(ContainSubstring("exceed the maximum")))
	})

	It("should reject an invalid configuration", func() {
		err := execute("--log-format", "xml", "runs", "list")

		Expect(err).To(MatchError(ContainSubstring("log format")))
	})

	It("should run a sum and export the ledger", func() {
		// Arrange
		dir := GinkgoT().TempDir()
		out := filepath.Join(dir, "runs.xlsx")

		// Act
		err := execute("--data-folder", dir, "--log-level", "error", "sum", "--size", "10000", "--chunk", "99", "--workers", "2")
		Expect(err).NotTo(HaveOccurred())
		err = execute("--data-folder", dir, "--log-level", "error", "runs", "export", "--out", out)
		Expect(err).NotTo(HaveOccurred())

		// Assert
		Eventually(func() error { _, err := os.Stat(out); return err }, time.Second).Should(Succeed())
		f, err := excelize.OpenFile(out)
		Expect(err).NotTo(HaveOccurred())
		defer f.Close()
		rows, err := f.GetRows("Runs")
		Expect(err).NotTo(HaveOccurred())
		Expect(rows).To(HaveLen(2))
		Expect(rows[1][2]).To(Equal("completed"))
		Expect(rows[1][7]).To(Equal("49995000"))
	})

	It("should reject an unknown status filter", func() {
		err := execute("runs", "list", "--status", "paused")

		Expect(err).To(MatchError(ContainSubstring("invalid run status")))
	})
})
