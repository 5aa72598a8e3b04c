package roles

import (
	"context"

	id "crewbase/pkg/domain"
)

// SeedBootstrapOperator registers a well-known platform operator in the
// in-memory registry so a fresh dev instance is usable without a directory
// import. Returns the operator's principal ID.
func SeedBootstrapOperator(operators *InMemoryOperatorRegistry) id.PrincipalID {
	pid := id.NewPrincipalID()
	_ = operators.Save(context.Background(), Operator{
		PrincipalID: pid,
		DisplayName: "bootstrap-operator",
	})
	return pid
}
