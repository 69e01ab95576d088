// Package store exposes the domain endpoints as typed services: menus,
// recipes and favorites. Each service is a thin pass-through over the
// request orchestrator; errors arrive already classified and notified.
package store

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	meal "github.com/larcherlucas/meal"
)

// Menus accesses the menu endpoints.
type Menus struct {
	api meal.Requester
}

var _ meal.MenuService = (*Menus)(nil)

// NewMenus creates the menu service.
func NewMenus(api meal.Requester) *Menus {
	return &Menus{api: api}
}

// List returns all menus and the server-reported total count.
func (s *Menus) List(ctx context.Context) ([]meal.Menu, int, error) {
	env, err := s.api.Do(ctx, http.MethodGet, "/menus", nil)
	if err != nil {
		return nil, 0, fmt.Errorf("meal/store: listing menus: %w", err)
	}
	var menus []meal.Menu
	if err := env.Decode(&menus); err != nil {
		return nil, 0, fmt.Errorf("meal/store: decoding menus: %w", err)
	}
	total := len(menus)
	if env.TotalCount != nil {
		total = *env.TotalCount
	}
	return menus, total, nil
}

// Active returns the currently active menu, or nil when none exists yet.
// Absence is a normal outcome here, not an error.
func (s *Menus) Active(ctx context.Context) (*meal.Menu, error) {
	env, err := s.api.Do(ctx, http.MethodGet, "/menus/active", nil, meal.WithAbsenceNormal())
	if err != nil {
		return nil, fmt.Errorf("meal/store: fetching active menu: %w", err)
	}
	if env.Empty() {
		return nil, nil
	}
	var menu meal.Menu
	if err := env.Decode(&menu); err != nil {
		return nil, fmt.Errorf("meal/store: decoding active menu: %w", err)
	}
	return &menu, nil
}

// Get returns one menu by ID.
func (s *Menus) Get(ctx context.Context, id int) (*meal.Menu, error) {
	env, err := s.api.Do(ctx, http.MethodGet, "/menus/"+strconv.Itoa(id), nil)
	if err != nil {
		return nil, fmt.Errorf("meal/store: fetching menu %d: %w", id, err)
	}
	var menu meal.Menu
	if err := env.Decode(&menu); err != nil {
		return nil, fmt.Errorf("meal/store: decoding menu %d: %w", id, err)
	}
	return &menu, nil
}

// Create creates a menu.
func (s *Menus) Create(ctx context.Context, input meal.MenuInput) (*meal.Menu, error) {
	env, err := s.api.Do(ctx, http.MethodPost, "/menus", input)
	if err != nil {
		return nil, fmt.Errorf("meal/store: creating menu: %w", err)
	}
	var menu meal.Menu
	if err := env.Decode(&menu); err != nil {
		return nil, fmt.Errorf("meal/store: decoding created menu: %w", err)
	}
	return &menu, nil
}

// Update updates a menu.
func (s *Menus) Update(ctx context.Context, id int, input meal.MenuInput) (*meal.Menu, error) {
	env, err := s.api.Do(ctx, http.MethodPut, "/menus/"+strconv.Itoa(id), input)
	if err != nil {
		return nil, fmt.Errorf("meal/store: updating menu %d: %w", id, err)
	}
	var menu meal.Menu
	if err := env.Decode(&menu); err != nil {
		return nil, fmt.Errorf("meal/store: decoding updated menu %d: %w", id, err)
	}
	return &menu, nil
}

// Delete removes a menu.
func (s *Menus) Delete(ctx context.Context, id int) error {
	if _, err := s.api.Do(ctx, http.MethodDelete, "/menus/"+strconv.Itoa(id), nil); err != nil {
		return fmt.Errorf("meal/store: deleting menu %d: %w", id, err)
	}
	return nil
}

// Recipes accesses the recipe endpoints.
type Recipes struct {
	api meal.Requester
}

var _ meal.RecipeService = (*Recipes)(nil)

// NewRecipes creates the recipe service.
func NewRecipes(api meal.Requester) *Recipes {
	return &Recipes{api: api}
}

// List returns all recipes and the server-reported total count.
func (s *Recipes) List(ctx context.Context) ([]meal.Recipe, int, error) {
	env, err := s.api.Do(ctx, http.MethodGet, "/recipes", nil)
	if err != nil {
		return nil, 0, fmt.Errorf("meal/store: listing recipes: %w", err)
	}
	var recipes []meal.Recipe
	if err := env.Decode(&recipes); err != nil {
		return nil, 0, fmt.Errorf("meal/store: decoding recipes: %w", err)
	}
	total := len(recipes)
	if env.TotalCount != nil {
		total = *env.TotalCount
	}
	return recipes, total, nil
}

// Get returns one recipe by ID.
func (s *Recipes) Get(ctx context.Context, id int) (*meal.Recipe, error) {
	env, err := s.api.Do(ctx, http.MethodGet, "/recipes/"+strconv.Itoa(id), nil)
	if err != nil {
		return nil, fmt.Errorf("meal/store: fetching recipe %d: %w", id, err)
	}
	var recipe meal.Recipe
	if err := env.Decode(&recipe); err != nil {
		return nil, fmt.Errorf("meal/store: decoding recipe %d: %w", id, err)
	}
	return &recipe, nil
}

// Create creates a recipe.
func (s *Recipes) Create(ctx context.Context, input meal.RecipeInput) (*meal.Recipe, error) {
	env, err := s.api.Do(ctx, http.MethodPost, "/recipes", input)
	if err != nil {
		return nil, fmt.Errorf("meal/store: creating recipe: %w", err)
	}
	var recipe meal.Recipe
	if err := env.Decode(&recipe); err != nil {
		return nil, fmt.Errorf("meal/store: decoding created recipe: %w", err)
	}
	return &recipe, nil
}

// Update updates a recipe.
func (s *Recipes) Update(ctx context.Context, id int, input meal.RecipeInput) (*meal.Recipe, error) {
	env, err := s.api.Do(ctx, http.MethodPut, "/recipes/"+strconv.Itoa(id), input)
	if err != nil {
		return nil, fmt.Errorf("meal/store: updating recipe %d: %w", id, err)
	}
	var recipe meal.Recipe
	if err := env.Decode(&recipe); err != nil {
		return nil, fmt.Errorf("meal/store: decoding updated recipe %d: %w", id, err)
	}
	return &recipe, nil
}

// Delete removes a recipe.
func (s *Recipes) Delete(ctx context.Context, id int) error {
	if _, err := s.api.Do(ctx, http.MethodDelete, "/recipes/"+strconv.Itoa(id), nil); err != nil {
		return fmt.Errorf("meal/store: deleting recipe %d: %w", id, err)
	}
	return nil
}

// Favorites accesses the favorites endpoints.
type Favorites struct {
	api meal.Requester
}

var _ meal.FavoriteService = (*Favorites)(nil)

// NewFavorites creates the favorites service.
func NewFavorites(api meal.Requester) *Favorites {
	return &Favorites{api: api}
}

// List returns the user's favorites.
func (s *Favorites) List(ctx context.Context) ([]meal.Favorite, error) {
	env, err := s.api.Do(ctx, http.MethodGet, "/favorites", nil)
	if err != nil {
		return nil, fmt.Errorf("meal/store: listing favorites: %w", err)
	}
	var favorites []meal.Favorite
	if err := env.Decode(&favorites); err != nil {
		return nil, fmt.Errorf("meal/store: decoding favorites: %w", err)
	}
	return favorites, nil
}

// Check reports whether the recipe is bookmarked. Absence is normal: an
// unbookmarked recipe yields false, not an error.
func (s *Favorites) Check(ctx context.Context, recipeID int) (bool, error) {
	env, err := s.api.Do(ctx, http.MethodGet, "/favorites/"+strconv.Itoa(recipeID), nil, meal.WithAbsenceNormal())
	if err != nil {
		return false, fmt.Errorf("meal/store: checking favorite %d: %w", recipeID, err)
	}
	return !env.Empty(), nil
}

// Add bookmarks a recipe.
func (s *Favorites) Add(ctx context.Context, recipeID int) error {
	if _, err := s.api.Do(ctx, http.MethodPost, "/favorites", meal.Favorite{RecipeID: recipeID}); err != nil {
		return fmt.Errorf("meal/store: adding favorite %d: %w", recipeID, err)
	}
	return nil
}

// Remove drops a bookmark.
func (s *Favorites) Remove(ctx context.Context, recipeID int) error {
	if _, err := s.api.Do(ctx, http.MethodDelete, "/favorites/"+strconv.Itoa(recipeID), nil); err != nil {
		return fmt.Errorf("meal/store: removing favorite %d: %w", recipeID, err)
	}
	return nil
}
