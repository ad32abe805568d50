package util_test

import (
	"context"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"

	"github.com/openairproject/oap-ota/util"
)

var _ = Describe("Json files", func() {

	var (
		tmpDir string
	)

	type TestConfig struct {
		Host         string
		Partitions   []string
		PollInterval int
	}

	BeforeEach(func() {
		var err error
		tmpDir, err = os.MkdirTemp("", "oap_util_test_tmp_*")
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		err := os.RemoveAll(tmpDir)
		Expect(err).NotTo(HaveOccurred())
	})

	Describe("Config", func() {
		Context("in JSON format", func() {
			It("should be written and read successfully", func() {
				written := &TestConfig{
					Host:         "https://ota.example.org",
					Partitions:   []string{"ota_0", "ota_1"},
					PollInterval: 3600,
				}

				file := filepath.Join(tmpDir, "nested", "config.json")
				err := util.WriteJson(context.Background(), file, written)
				Expect(err).NotTo(HaveOccurred())

				read, err := util.ReadJson(file, &TestConfig{})
				Expect(err).NotTo(HaveOccurred())
				Expect(read).NotTo(BeNil())
				Expect(read.(*TestConfig)).To(Equal(written))
			})

			It("should not leave temporary files behind", func() {
				file := filepath.Join(tmpDir, "state.json")
				Expect(util.WriteJson(context.Background(), file, map[string]string{"Boot": "ota_0"})).To(Succeed())
				Expect(util.WriteJson(context.Background(), file, map[string]string{"Boot": "ota_1"})).To(Succeed())

				entries, err := os.ReadDir(tmpDir)
				Expect(err).NotTo(HaveOccurred())
				Expect(entries).To(HaveLen(1))
				Expect(entries[0].Name()).To(Equal("state.json"))
			})

			It("should refuse to write with a cancelled context", func() {
				ctx, cancel := context.WithCancel(context.Background())
				cancel()

				err := util.WriteJson(ctx, filepath.Join(tmpDir, "config.json"), &TestConfig{})
				Expect(err).To(HaveOccurred())
				Expect(err).To(MatchError(context.Canceled))
				Expect(util.FileExists(filepath.Join(tmpDir, "config.json"))).To(BeFalse())
			})

			It("should fail on a missing file", func() {
				_, err := util.ReadJson(filepath.Join(tmpDir, "missing.json"), &TestConfig{})
				Expect(os.IsNotExist(err)).To(BeTrue())
			})
		})

		Context("when removed", func() {
			It("should ignore missing files", func() {
				Expect(util.RemoveJson(filepath.Join(tmpDir, "missing.json"))).To(Succeed())
			})

			It("should delete existing files", func() {
				file := filepath.Join(tmpDir, "result.json")
				Expect(util.WriteJson(context.Background(), file, &TestConfig{})).To(Succeed())
				Expect(util.RemoveJson(file)).To(Succeed())
				Expect(util.FileExists(file)).To(BeFalse())
			})
		})
	})
})
