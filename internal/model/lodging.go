package model

// Lodging represents a row in the `lodgings` table.  The JSON names
// follow the column names, so the owner is rendered as `ownerid`.
//
// Fields:
//  ID          – primary key assigned by MySQL.
//  Name        – display name (required).
//  Description – free text (optional, NULL in the table when absent).
//  Street, City, State, Zip – postal address (required).
//  Price       – nightly price (required, non-zero).
//  OwnerID     – identifier of the owning user in the users collection.
type Lodging struct {
    ID          int64   `db:"id" json:"id"`                   // lodgings.id
    Name        string  `db:"name" json:"name"`               // lodgings.name
    Description string  `db:"description" json:"description"` // lodgings.description
    Street      string  `db:"street" json:"street"`           // lodgings.street
    City        string  `db:"city" json:"city"`               // lodgings.city
    State       string  `db:"state" json:"state"`             // lodgings.state
    Zip         string  `db:"zip" json:"zip"`                 // lodgings.zip
    Price       float64 `db:"price" json:"price"`             // lodgings.price
    OwnerID     string  `db:"ownerid" json:"ownerid"`         // lodgings.ownerid
}

// LodgingInput is the request body accepted by POST and PUT /lodgings.
// The `required` rule rejects empty strings and a zero price.
type LodgingInput struct {
    Name        string  `json:"name" validate:"required"`
    Description string  `json:"description"`
    Street      string  `json:"street" validate:"required"`
    City        string  `json:"city" validate:"required"`
    State       string  `json:"state" validate:"required"`
    Zip         string  `json:"zip" validate:"required"`
    Price       float64 `json:"price" validate:"required"`
    OwnerID     string  `json:"ownerID" validate:"required"`
}

// LodgingPage is one page of the lodgings listing together with the
// pagination metadata and hypermedia links.
type LodgingPage struct {
    Lodgings   []Lodging         `json:"lodgings"`
    PageNumber int               `json:"pageNumber"`
    TotalPages int               `json:"totalPages"`
    PageSize   int               `json:"pageSize"`
    TotalCount int               `json:"totalCount"`
    Links      map[string]string `json:"links"`
}
