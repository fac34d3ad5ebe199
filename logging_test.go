package pointmorph

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultLogger_LevelsAndComponents(t *testing.T) {
	var out, errOut bytes.Buffer
	logger := NewWriterLogger(&out, &errOut, "pointmorph", false)

	logger.Debugf("hidden")
	logger.Infof("loaded %d", 3)
	logger.With("assets").Warnf("slow")
	logger.With("panel").With("ws").Errorf("gone")

	assert.NotContains(t, out.String(), "hidden")
	assert.Contains(t, out.String(), "[pointmorph] INFO: loaded 3")
	assert.Contains(t, errOut.String(), "[pointmorph] WARN assets: slow")
	assert.Contains(t, errOut.String(), "[pointmorph] ERROR panel.ws: gone")
}

func TestDefaultLogger_DebugSwitchIsShared(t *testing.T) {
	var out bytes.Buffer
	logger := NewWriterLogger(&out, &out, "", false)
	child := logger.With("particles")

	logger.SetDebug(true)
	assert.True(t, child.DebugEnabled())
	child.Debugf("morph %d", 1)
	assert.Contains(t, out.String(), "DEBUG particles: morph 1")
}

func TestApp_Logger(t *testing.T) {
	var nilApp *App
	assert.NotNil(t, nilApp.Logger())

	app := NewAppBuilder().Build()
	assert.IsType(t, nopLogger{}, app.Logger())

	var out bytes.Buffer
	app = NewAppBuilder().UseModule(LoggingModule{Prefix: "t", Out: &out, Err: &out}).Build()
	_, ok := app.Logger().(*DefaultLogger)
	require.True(t, ok)
	app.Logger().Infof("hello")
	assert.Contains(t, out.String(), "[t] INFO: hello")
}
