package pressure

import (
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func TestPressure(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Pressure Suite")
}
