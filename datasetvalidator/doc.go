// Package datasetvalidator checks that a dataset description file has the
// structure a training pipeline expects.
//
// Two formats are recognized by filename suffix:
//
//   - .json: a dataset manifest with the keys labels_are_mece, class_names,
//     labels and splits
//   - .csv: an annotation table whose text contains the header
//     video_id,timestamp,x,y,behavior
//
// Anything else yields an info verdict. Validation is structural: it checks
// that keys and headers exist, not that their values are correct.
//
// # Basic Usage
//
//	v := datasetvalidator.Validate("dataset.json", text)
//	switch v.Status {
//	case datasetvalidator.StatusSuccess:
//	    // ready for training
//	case datasetvalidator.StatusWarning:
//	    for _, issue := range v.Issues {
//	        fmt.Println(issue)
//	    }
//	}
//
// # Optional Checks
//
// An [Engine] can add warning-tier checks beyond key presence:
//
//	engine := datasetvalidator.New(
//	    datasetvalidator.WithCrossReferences(true), // labels vs class_names, splits vs labels
//	    datasetvalidator.WithTypeChecks(true),      // JSON Schema value types
//	)
//	v := engine.Validate("dataset.json", text)
//
// Additional issues are appended after the missing-key issues.
package datasetvalidator
