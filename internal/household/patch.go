package household

// Field patches. A nil field leaves the current value alone; a set field
// overwrites it (last write wins, per field).

// AlbumPatch updates album metadata.
type AlbumPatch struct {
	Name         *string `json:"name,omitempty"`
	Description  *string `json:"description,omitempty"`
	CoverPhotoID *string `json:"coverPhotoId,omitempty"`
}

func (p AlbumPatch) apply(a *Album) {
	if p.Name != nil {
		a.Name = *p.Name
	}
	if p.Description != nil {
		a.Description = *p.Description
	}
	if p.CoverPhotoID != nil {
		a.CoverPhotoID = *p.CoverPhotoID
	}
}

// MemoryPatch updates memory metadata.
type MemoryPatch struct {
	Title       *string   `json:"title,omitempty"`
	Description *string   `json:"description,omitempty"`
	Date        *string   `json:"date,omitempty"`
	PhotoIDs    *[]string `json:"photoIds,omitempty"`
}

func (p MemoryPatch) apply(m *MemoryItem) {
	if p.Title != nil {
		m.Title = *p.Title
	}
	if p.Description != nil {
		m.Description = *p.Description
	}
	if p.Date != nil {
		m.Date = *p.Date
	}
	if p.PhotoIDs != nil {
		m.PhotoIDs = append([]string(nil), (*p.PhotoIDs)...)
	}
}

// PhotoPatch updates photo metadata. Photo edits stay local-only.
type PhotoPatch struct {
	Title   *string `json:"title,omitempty"`
	AlbumID *string `json:"albumId,omitempty"`
	Name    *string `json:"name,omitempty"`
}

func (p PhotoPatch) apply(ph *PhotoItem) {
	if p.Title != nil {
		ph.Title = *p.Title
	}
	if p.AlbumID != nil {
		ph.AlbumID = *p.AlbumID
	}
	if p.Name != nil {
		ph.Name = *p.Name
	}
}

// MealPlanPatch updates a planned meal.
type MealPlanPatch struct {
	Date     *string   `json:"date,omitempty"`
	MealType *MealType `json:"mealType,omitempty"`
	Title    *string   `json:"title,omitempty"`
	Notes    *string   `json:"notes,omitempty"`
	Serves   *int      `json:"serves,omitempty"`
}

func (p MealPlanPatch) apply(m *MealPlan) {
	if p.Date != nil {
		m.Date = *p.Date
	}
	if p.MealType != nil {
		m.MealType = *p.MealType
	}
	if p.Title != nil {
		m.Title = *p.Title
	}
	if p.Notes != nil {
		m.Notes = *p.Notes
	}
	if p.Serves != nil {
		m.Serves = *p.Serves
	}
}

// PantryItemPatch updates pantry stock.
type PantryItemPatch struct {
	Name     *string `json:"name,omitempty"`
	Qty      *int    `json:"qty,omitempty"`
	Unit     *string `json:"unit,omitempty"`
	Category *string `json:"category,omitempty"`
}

func (p PantryItemPatch) apply(it *PantryItem) {
	if p.Name != nil {
		it.Name = *p.Name
	}
	if p.Qty != nil {
		it.Qty = *p.Qty
	}
	if p.Unit != nil {
		it.Unit = *p.Unit
	}
	if p.Category != nil {
		it.Category = *p.Category
	}
}

// RecipePatch updates a recipe.
type RecipePatch struct {
	Name         *string             `json:"name,omitempty"`
	Ingredients  *[]RecipeIngredient `json:"ingredients,omitempty"`
	Instructions *string             `json:"instructions,omitempty"`
}

func (p RecipePatch) apply(r *Recipe) {
	if p.Name != nil {
		r.Name = *p.Name
	}
	if p.Ingredients != nil {
		r.Ingredients = append([]RecipeIngredient(nil), (*p.Ingredients)...)
	}
	if p.Instructions != nil {
		r.Instructions = *p.Instructions
	}
}
