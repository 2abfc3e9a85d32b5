package extract

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/mortgagemesh/core"
)

var _ DocumentExtractor = (*StaticExtractor)(nil)

func TestStaticExtractorByType(t *testing.T) {
	e := NewStaticExtractor()

	ext, err := e.Extract(context.Background(), core.Document{
		ID:   "doc-1",
		Type: core.DocumentPayStub,
	})
	require.NoError(t, err)

	assert.Equal(t, core.DocumentPayStub, ext.DocumentType)
	assert.Equal(t, 6250.0, ext.Fields["gross_monthly_income"])
	assert.Equal(t, "monthly", ext.Fields["pay_frequency"])
	assert.Equal(t, 0.92, ext.Confidence)

	ext, err = e.Extract(context.Background(), core.Document{
		ID:   "doc-2",
		Type: core.DocumentTaxDocument,
	})
	require.NoError(t, err)
	assert.Equal(t, 75000.0, ext.Fields["reported_annual_income"])
}

func TestStaticExtractorClassifiesByFileName(t *testing.T) {
	e := NewStaticExtractor()

	cases := []struct {
		fileName string
		want     core.DocumentType
	}{
		{"jane_paystub_march.pdf", core.DocumentPayStub},
		{"chase_bank_statement.pdf", core.DocumentBankStatement},
		{"2025_w2.pdf", core.DocumentTaxDocument},
		{"drivers_license.jpg", core.DocumentIdentity},
		{"utility_bill.pdf", core.DocumentAddressProof},
		{"scan_0042.pdf", core.DocumentIncome},
	}
	for _, tc := range cases {
		ext, err := e.Extract(context.Background(), core.Document{FileName: tc.fileName})
		require.NoError(t, err)
		assert.Equal(t, tc.want, ext.DocumentType, tc.fileName)
	}
}

func TestStaticExtractorPrefersExplicitType(t *testing.T) {
	e := NewStaticExtractor()

	// A typed document is not reclassified by its file name.
	ext, err := e.Extract(context.Background(), core.Document{
		Type:     core.DocumentIdentity,
		FileName: "bank_statement.pdf",
	})
	require.NoError(t, err)
	assert.Equal(t, core.DocumentIdentity, ext.DocumentType)
	assert.Equal(t, true, ext.Fields["id_verified"])
}
