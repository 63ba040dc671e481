package importer

import "strings"

// row abstracts over headered and headerless CSV records so the field
// mapping below reads the same either way.
type row interface {
	// field returns the value for any of the given header aliases, or the
	// positional fallback column when no alias yields a non-empty value.
	field(aliases []string, fallback int) string
}

type headeredRow struct {
	values map[string]string
}

func (r headeredRow) field(aliases []string, fallback int) string {
	for _, k := range aliases {
		if v, ok := r.values[k]; ok && v != "" {
			return v
		}
	}
	return ""
}

type positionalRow struct {
	values []string
}

func (r positionalRow) field(aliases []string, fallback int) string {
	if fallback >= 0 && fallback < len(r.values) {
		return r.values[fallback]
	}
	return ""
}

// Column aliases, case variants and French labels included. Order matters:
// the first matching alias wins.
var (
	nameAliases     = []string{"name", "Name", "nom", "Nom"}
	phoneAliases    = []string{"phone", "Phone", "tel", "Tel", "Telephone", "Téléphone"}
	productAliases  = []string{"product", "Product", "filiere", "Produit", "produit", "filières"}
	activityAliases = []string{"activity", "Activity", "Activité"}
	locationAliases = []string{"location", "Location", "Localisation"}
	legalAliases    = []string{"legal_form", "Legal_form", "forme"}
	niuAliases      = []string{"niu", "NIU"}
	scoreAliases    = []string{"validity_score", "score"}
	statusAliases   = []string{"status", "etat"}
)

// aliasIndex maps every known alias to its positional column, used by the
// header sniffer.
var aliasIndex = buildAliasIndex()

func buildAliasIndex() map[string]int {
	idx := make(map[string]int)
	for col, aliases := range [][]string{
		nameAliases, phoneAliases, productAliases, activityAliases,
		locationAliases, legalAliases, niuAliases, scoreAliases, statusAliases,
	} {
		for _, a := range aliases {
			idx[a] = col
			idx[strings.ToLower(a)] = col
		}
	}
	return idx
}
