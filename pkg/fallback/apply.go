package fallback

import (
	"context"

	"github.com/Avinash9608/Furniture-sub003/pkg/domain"
)

// Apply performs op against st. Write verbs pass opts through so the store can
// check the generation guard and exclusive field inside its transaction.
func Apply(ctx context.Context, st domain.Store, op domain.Operation, opts domain.WriteOptions) (interface{}, error) {
	switch op.Verb() {
	case domain.VerbRead:
		return st.Find(ctx, op.Collection(), op.Query())
	case domain.VerbReadOne:
		doc, err := st.FindOne(ctx, op.Collection(), op.ID())
		if domain.IsNotFound(err) {
			return nil, nil
		}
		return doc, err
	case domain.VerbWrite:
		return st.Insert(ctx, op.Collection(), op.Payload(), opts)
	case domain.VerbUpdate:
		return st.Update(ctx, op.Collection(), op.ID(), op.Payload(), opts)
	case domain.VerbDelete:
		if err := st.Delete(ctx, op.Collection(), op.ID(), opts); err != nil {
			return nil, err
		}
		return domain.Document{domain.IDField: op.ID()}, nil
	}
	return nil, domain.Errorf(domain.KindValidation, "apply", "unsupported verb %q", op.Verb())
}
