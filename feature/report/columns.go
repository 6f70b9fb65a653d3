package report

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Role is the semantic meaning of a report column.
type Role string

const (
	RoleCode        Role = "code"
	RoleBranch      Role = "branch"
	RoleSellerID    Role = "seller_id"
	RoleSellerName  Role = "seller_name"
	RolePaymentDate Role = "payment_date"
	RolePrizeAmount Role = "prize_amount"
	RolePrizeType   Role = "prize_type"
)

// roleSpec lists, in priority order, the header names accepted for a role and
// the keywords used when no exact name matches.
type roleSpec struct {
	role     Role
	aliases  []string
	keywords []string
}

// roleSpecs is ordered: roles earlier in the list claim headers first.
var roleSpecs = []roleSpec{
	{
		role: RoleCode,
		aliases: []string{
			"CODIGO DE BARRA", "CODIGO_DE_BARRA", "CODIGO DE BARRAS", "CODIGO_BARRAS",
			"CODIGO", "BARCODE", "CODE",
		},
		keywords: []string{"CODIGO", "BARRA", "BARCODE"},
	},
	{
		role: RoleBranch,
		aliases: []string{
			"PDV", "SUCURSAL", "PUNTO DE VENTA", "PUNTO_VENTA", "PUNTOVENTA",
			"PTO VENTA", "PUNTO", "BRANCH", "STORE",
		},
		keywords: []string{"PDV", "SUCURSAL", "BRANCH"},
	},
	{
		role: RoleSellerID,
		aliases: []string{
			"DOC VENDEDOR", "DOC_VENDEDOR", "DOCUMENTO VENDEDOR", "DOCUMENTO_VENDEDOR",
			"CEDULA VENDEDOR", "VENDEDOR_DOC", "DOC", "DOCUMENTO", "SELLER ID", "SELLER_ID",
		},
		keywords: []string{"DOC", "CEDULA"},
	},
	{
		role: RoleSellerName,
		aliases: []string{
			"VENDEDOR", "NOMBRE VENDEDOR", "NOMBRE_VENDEDOR", "VENDEDOR_NOMBRE",
			"CAJERO", "NOMBRE", "SELLER", "SELLER NAME", "SELLER_NAME",
		},
		keywords: []string{"VENDEDOR", "SELLER"},
	},
	{
		role: RolePaymentDate,
		aliases: []string{
			"FECHA PAGO", "FECHA_PAGO", "FECHA", "FECHA DE PAGO", "FECHA_DE_PAGO",
			"FECHAPAGO", "PAYMENT DATE", "PAYMENT_DATE",
		},
		keywords: []string{"FECHA", "PAGO", "DATE"},
	},
	{
		role: RolePrizeAmount,
		aliases: []string{
			"TOTAL PREMIO", "TOTAL_PREMIO", "MONTO PREMIO", "MONTO_PREMIO", "PREMIO",
			"VALOR PREMIO", "VALOR", "PRIZE", "PRIZE AMOUNT", "AMOUNT",
		},
		keywords: []string{"TOTAL", "MONTO", "VALOR", "AMOUNT"},
	},
	{
		role: RolePrizeType,
		aliases: []string{
			"TIPO PREMIO", "TIPO_PREMIO", "TIPO", "TIPO DE PREMIO", "PRIZE TYPE", "PRIZE_TYPE",
		},
		keywords: []string{"TIPO", "TYPE"},
	},
}

// Roles returns all roles in detection priority order.
func Roles() []Role {
	out := make([]Role, 0, len(roleSpecs))
	for _, spec := range roleSpecs {
		out = append(out, spec.role)
	}
	return out
}

// DetectColumns maps report headers to roles.
//
// Each role first tries its aliases in order against the headers, ignoring
// case, accents and surrounding spaces. Roles still unmapped then take the first free
// header containing one of their keywords. A header is never assigned to two
// roles, and columns added by Export never take part in the keyword pass.
func DetectColumns(headers []string) map[Role]string {
	mapping := make(map[Role]string)
	taken := make(map[string]bool)

	for _, spec := range roleSpecs {
		for _, alias := range spec.aliases {
			if h, ok := findHeader(headers, alias, taken); ok {
				mapping[spec.role] = h
				taken[h] = true
				break
			}
		}
	}

	for _, h := range headers {
		if taken[h] || isAugmentColumn(h) {
			continue
		}
		upper := foldHeader(h)
		for _, spec := range roleSpecs {
			if _, done := mapping[spec.role]; done {
				continue
			}
			if containsAny(upper, spec.keywords) {
				mapping[spec.role] = h
				taken[h] = true
				break
			}
		}
	}

	return mapping
}

func findHeader(headers []string, alias string, taken map[string]bool) (string, bool) {
	for _, h := range headers {
		if taken[h] {
			continue
		}
		if foldHeader(h) == alias {
			return h, true
		}
	}
	return "", false
}

func containsAny(s string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(s, k) {
			return true
		}
	}
	return false
}

// foldHeader upper-cases a header and removes accents so "Código" matches "CODIGO".
func foldHeader(h string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, h)
	if err != nil {
		folded = h
	}
	return strings.ToUpper(strings.TrimSpace(folded))
}
