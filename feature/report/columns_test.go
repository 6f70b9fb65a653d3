package report

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDetectColumns(t *testing.T) {
	tests := []struct {
		name    string
		headers []string
		want    map[Role]string
	}{
		{
			name:    "Canonical headers",
			headers: []string{"CODIGO DE BARRA", "PDV", "DOC VENDEDOR", "VENDEDOR", "FECHA PAGO", "TOTAL PREMIO", "TIPO PREMIO"},
			want: map[Role]string{
				RoleCode:        "CODIGO DE BARRA",
				RoleBranch:      "PDV",
				RoleSellerID:    "DOC VENDEDOR",
				RoleSellerName:  "VENDEDOR",
				RolePaymentDate: "FECHA PAGO",
				RolePrizeAmount: "TOTAL PREMIO",
				RolePrizeType:   "TIPO PREMIO",
			},
		},
		{
			name:    "Case and accents are ignored",
			headers: []string{"  código de barras ", "Sucursal"},
			want: map[Role]string{
				RoleCode:   "  código de barras ",
				RoleBranch: "Sucursal",
			},
		},
		{
			name:    "Keyword fallback",
			headers: []string{"NUM_CODIGO_TICKET", "NOMBRE_DEL_VENDEDOR_PRINCIPAL", "FECHA_VENTA_X"},
			want: map[Role]string{
				RoleCode:        "NUM_CODIGO_TICKET",
				RoleSellerName:  "NOMBRE_DEL_VENDEDOR_PRINCIPAL",
				RolePaymentDate: "FECHA_VENTA_X",
			},
		},
		{
			name:    "A header is used once",
			headers: []string{"CODIGO", "CODIGO_2"},
			want:    map[Role]string{RoleCode: "CODIGO"},
		},
		{
			name:    "Export columns are not matched by keyword",
			headers: []string{"CODIGO", "FECHA_ESCANEO", "VALIDADO"},
			want:    map[Role]string{RoleCode: "CODIGO"},
		},
		{
			name:    "No code column",
			headers: []string{"PDV", "VENDEDOR"},
			want:    map[Role]string{RoleBranch: "PDV", RoleSellerName: "VENDEDOR"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DetectColumns(tt.headers))
		})
	}
}

func TestRoles(t *testing.T) {
	roles := Roles()
	assert.Len(t, roles, 7)
	assert.Equal(t, RoleCode, roles[0])
}
