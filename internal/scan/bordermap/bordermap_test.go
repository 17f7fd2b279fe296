package bordermap

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sentry/internal/scan/models"
)

func TestBuilder(t *testing.T) {
	b := New()
	assert.NotNil(t, b.Nodes())
	assert.Empty(t, b.Nodes())

	b.Add(models.DataBorderNode{Domain: "clinic.example", Type: models.NodePrimary})
	b.Add(
		models.DataBorderNode{Domain: "mx1.mail.example", Type: models.NodeMail},
		models.DataBorderNode{Domain: "mx1.mail.example", Type: models.NodeMail},
	)

	nodes := b.Nodes()
	require.Len(t, nodes, 3)
	assert.Equal(t, "clinic.example", nodes[0].Domain)
	assert.Equal(t, 1, b.Count(models.NodePrimary))
	assert.Equal(t, 2, b.Count(models.NodeMail))

	nodes[0].Domain = "mutated"
	assert.Equal(t, "clinic.example", b.Nodes()[0].Domain, "Nodes must return a copy")
}
