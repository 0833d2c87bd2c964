package main_test

import (
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/frahmantamala/club-ledger/cmd"
)

func TestClubLedger(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "ClubLedger Suite")
}

var _ = Describe("Command tree", func() {
	It("registers every operational command", func() {
		names := map[string]bool{}
		for _, c := range cmd.RootCommand().Commands() {
			names[c.Name()] = true
		}
		for _, want := range []string{"server", "migrate", "seed", "worker", "event", "fiscal"} {
			Expect(names).To(HaveKey(want), "missing command %q", want)
		}
	})

	It("requires a fiscal year label to close", func() {
		root := cmd.RootCommand()
		fiscal, _, err := root.Find([]string{"fiscal", "close"})
		Expect(err).NotTo(HaveOccurred())
		Expect(fiscal.Args(fiscal, nil)).To(HaveOccurred())
		Expect(fiscal.Args(fiscal, []string{"2025-2026"})).To(Succeed())
	})
})
