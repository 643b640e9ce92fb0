// Package hcl is the HCL front-end for field documents.
//
// An HCL document maps onto the same markup tree as the XML form:
//
//	region "example" {
//	  continuous_type "real" {}
//	  ensemble_type "nodes" {
//	    members {
//	      member_range {
//	        min = 1
//	        max = 8
//	      }
//	    }
//	  }
//	  reference_evaluator "coords" {
//	    evaluator = "library.real.1d"
//	  }
//	}
//
// Block types are the snake_case form of the element tags, the first label
// is the name attribute, attributes are the snake_case form of the camelCase
// attribute names, and an attribute called content carries the element
// text. Lists become whitespace separated text.
package hcl
