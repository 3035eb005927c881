package passage_test

import (
	"context"
	"fmt"
	"log"

	"github.com/aretw0/passage"
	"github.com/aretw0/passage/pkg/adapters/memory"
	"github.com/aretw0/passage/pkg/domain"
)

// ExampleEngine_Navigate shows a leave hook redirecting a navigation.
func ExampleEngine_Navigate() {
	loader := memory.MustLoader(
		domain.Route{ID: "editor", OnLeave: domain.LeaveFunc(func(ctx context.Context, t *domain.Transition, unsaved any) (any, error) {
			if unsaved == true {
				t.Redirect("confirm", nil, domain.Query{"next": t.Path()})
			}
			return nil, nil
		})},
		domain.Route{ID: "home", OnEnter: domain.EnterFunc(func(ctx context.Context, t *domain.Transition, p domain.Params, q domain.Query) (any, error) {
			return "welcome home", nil
		})},
	)
	eng := passage.New(passage.WithLoader(loader))

	outcome, err := eng.Navigate(context.Background(), domain.NavigationRequest{
		Path:       "/home",
		From:       []string{"editor"},
		To:         []string{"home"},
		Components: []any{true},
	})
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println(outcome.Status, outcome.Redirect.To, outcome.Redirect.Query["next"])

	outcome, err = eng.Navigate(context.Background(), domain.NavigationRequest{
		Path:       "/home",
		From:       []string{"editor"},
		To:         []string{"home"},
		Components: []any{false},
	})
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println(outcome.Status, outcome.Result)

	// Output:
	// redirected confirm /home
	// completed welcome home
}

// ExampleEngine_Leave runs a leave phase directly, mixing calling conventions.
func ExampleEngine_Leave() {
	routes := []domain.Route{
		{ID: "a", OnLeave: domain.LeaveFunc(func(ctx context.Context, t *domain.Transition, c any) (any, error) {
			return 1, nil
		})},
		{ID: "b", OnLeave: domain.LeaveCallback(func(ctx context.Context, t *domain.Transition, c any, done domain.Done) {
			done(nil, 2)
		})},
	}

	result, err := passage.New().Leave(context.Background(), domain.NewTransition("/next", nil), routes, nil)
	fmt.Println(result, err)

	// Output:
	// 2 <nil>
}
