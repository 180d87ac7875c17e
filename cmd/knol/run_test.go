package main

import (
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/knolhq/knol/pkg/compose"
)

func TestGetRunConfigFromFlags(t *testing.T) {
	cmd := &cobra.Command{}
	defaults := NewRunConfig()
	cmd.Flags().StringP("output", "o", defaults.Output, "")
	cmd.Flags().Bool("strict", defaults.Strict, "")
	cmd.Flags().IntP("concurrency", "c", defaults.Concurrency, "")

	require.NoError(t, cmd.Flags().Set("output", "json"))
	require.NoError(t, cmd.Flags().Set("strict", "true"))
	require.NoError(t, cmd.Flags().Set("concurrency", "4"))

	config := getRunConfigFromFlags(cmd)
	assert.Equal(t, "json", config.Output)
	assert.True(t, config.Strict)
	assert.Equal(t, 4, config.Concurrency)
}

func TestGetRunConfigFromFlags_IgnoresNonPositiveConcurrency(t *testing.T) {
	cmd := &cobra.Command{}
	defaults := NewRunConfig()
	cmd.Flags().StringP("output", "o", defaults.Output, "")
	cmd.Flags().Bool("strict", defaults.Strict, "")
	cmd.Flags().IntP("concurrency", "c", defaults.Concurrency, "")

	require.NoError(t, cmd.Flags().Set("concurrency", "0"))

	config := getRunConfigFromFlags(cmd)
	assert.Equal(t, defaults.Concurrency, config.Concurrency)
}

func TestPrintResult_RejectsUnknownFormat(t *testing.T) {
	result := &compose.Result{Payload: "p"}
	err := printResult(result, "xml")
	assert.Error(t, err)
}

func TestLoadFamilies_DefaultsWhenUnset(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	families, err := loadFamilies()
	require.NoError(t, err)
	require.Len(t, families, 4)
	assert.Equal(t, "Key Concepts", families[0].Name)
}

func TestLoadFamilies_FromConfig(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	viper.Set("sections", []map[string]interface{}{
		{"name": "Overview", "headings": []string{"Overview"}},
		{"name": "Usage", "headings": []string{"Usage", "Examples"}},
	})

	families, err := loadFamilies()
	require.NoError(t, err)
	require.Len(t, families, 2)
	assert.Equal(t, "Overview", families[0].Name)
	assert.Equal(t, []string{"Usage", "Examples"}, families[1].Headings)
}
