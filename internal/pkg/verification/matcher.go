package verification

import "strings"

// MatchEmail returns the resource id of the first transaction whose payer
// email equals email, ignoring case. Transactions missing either field are
// skipped. The id may be empty.
func MatchEmail(email string, txs []Transaction) (string, bool) {
	for _, tx := range txs {
		if tx.PayerEmail == nil || tx.CustomField == nil {
			continue
		}
		if !strings.EqualFold(*tx.PayerEmail, email) {
			continue
		}
		return ResourceIDFromCustomField(*tx.CustomField), true
	}
	return "", false
}

// ResourceIDFromCustomField returns the last "|" separated segment.
func ResourceIDFromCustomField(field string) string {
	if i := strings.LastIndexByte(field, '|'); i >= 0 {
		return field[i+1:]
	}
	return field
}
