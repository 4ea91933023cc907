package sqlassets

import _ "embed"

//go:embed schema/profiles.sql
var ProfilesSQL string

//go:embed schema/companypages.sql
var CompanyPagesSQL string

//go:embed schema/floristslides.sql
var FloristSlidesSQL string

//go:embed schema/packages.sql
var PackagesSQL string
