package importer

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/tally-ledger/tally/internal/model"
)

// referencer derives stable references like chase_20250103_1b4e28ba from a
// row's date, description and amount. Identical rows in one file are distinct
// transactions; the occurrence count keeps their references apart.
type referencer struct {
	prefix    string
	namespace uuid.UUID
	seen      map[string]int
}

func newReferencer(prefix, namespaceURL string) *referencer {
	return &referencer{
		prefix:    prefix,
		namespace: uuid.NewSHA1(uuid.NameSpaceURL, []byte(namespaceURL)),
		seen:      make(map[string]int),
	}
}

func (r *referencer) next(txn model.BankTransaction) string {
	day := txn.Date.Format("20060102")
	key := strings.Join([]string{day, txn.Description, txn.Amount.StringFixed(2)}, "|")
	r.seen[key]++
	ref := uuid.NewSHA1(r.namespace, []byte(fmt.Sprintf("%s#%d", key, r.seen[key])))
	return fmt.Sprintf("%s_%s_%s", r.prefix, day, ref.String()[:8])
}
