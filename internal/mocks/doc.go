// Package mocks provides shared test doubles for the service and api packages.
//
// MemoryStore is an in-memory store.Transactor that honors unique names,
// version checks and rollback, so service behavior can be tested without a
// database. The remaining types are function-field or testify mocks:
//
//	store := mocks.NewMemoryStore()
//	tokens := &mocks.MockJWTService{Token: "token"}
//	svc := auth.NewService(store, &mocks.PlainHasher{}, tokens, nil)
//
// FailOn injects a failure into a named statement, which is how rollback of
// multi-statement operations is exercised:
//
//	store.FailOn = func(stmt string) error {
//	    if stmt == "projects.delete_by_user" {
//	        return errors.New("boom")
//	    }
//	    return nil
//	}
package mocks
