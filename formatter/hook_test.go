package formatter

import (
	"bytes"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFilePathParsing(t *testing.T) {
	testCases := []struct {
		filePath         string
		expectedFileName string
	}{
		// locally cloned repo
		{
			filePath:         "/home/user/src/oap-ota/client/internal/updatemanager/manager.go",
			expectedFileName: "client/internal/updatemanager/manager.go",
		},
		// module cache path
		{
			filePath:         "/go/pkg/mod/github.com/openairproject/oap-ota/version/version.go",
			expectedFileName: "version/version.go",
		},
		// renamed package root
		{
			filePath:         "/home/user/firmware-agent/formatter/formatter.go",
			expectedFileName: "formatter/formatter.go",
		},
	}

	hook := NewContextHook()

	for _, testCase := range testCases {
		parsedString := hook.parseSrc(testCase.filePath)
		assert.Equal(t, testCase.expectedFileName, parsedString, "Parsed filepath does not match expected for %s", testCase.filePath)
	}
}

func TestSetTextFormatter(t *testing.T) {
	var buf bytes.Buffer
	logger := logrus.New()
	logger.SetOutput(&buf)
	SetTextFormatter(logger)

	logger.WithField("state", "downloading").Warn("digest mismatch")

	line := buf.String()
	require.True(t, strings.HasSuffix(line, "\n"))
	assert.Contains(t, line, " WARN ")
	assert.Contains(t, line, "[state: downloading]")
	assert.Contains(t, line, "hook_test.go:")
	assert.Contains(t, line, "digest mismatch")
}
