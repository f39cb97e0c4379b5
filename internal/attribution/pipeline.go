package attribution

import (
	"gomix/domain/attribution"
	"gomix/domain/core"
	"gomix/domain/dataset"
)

// Analyze runs the whole attribution chain: detect columns, build the design
// matrix, fit, allocate contributions and rank channels by ROI. Schema and
// parameter problems fail before any computation. The returned Result has no
// RunID; callers that track runs assign one.
func Analyze(ds dataset.Dataset, params attribution.Params) (attribution.Result, error) {
	roles, err := ResolveColumns(ds.Columns)
	if err != nil {
		return attribution.Result{}, err
	}
	return AnalyzeWithRoles(ds, roles, params)
}

// AnalyzeWithRoles is Analyze with caller-supplied column roles.
func AnalyzeWithRoles(ds dataset.Dataset, roles attribution.ColumnRoles, params attribution.Params) (attribution.Result, error) {
	if err := params.Validate(); err != nil {
		return attribution.Result{}, err
	}
	design, err := BuildDesign(ds, roles, params)
	if err != nil {
		return attribution.Result{}, err
	}
	model, err := Fit(design)
	if err != nil {
		return attribution.Result{}, err
	}
	contrib, err := Contributions(design, model.Coefficients)
	if err != nil {
		return attribution.Result{}, err
	}

	return attribution.Result{
		DatasetHash:          Fingerprint(ds),
		Roles:                roles,
		Params:               params,
		InputRows:            ds.Len(),
		UsedRows:             design.Rows(),
		DroppedDate:          design.DroppedDate,
		DroppedTarget:        design.DroppedTarget,
		Model:                model,
		Contributions:        contrib,
		ROI:                  ROIByChannel(ds, design, contrib),
		BaselineContribution: contrib.ColumnTotal(attribution.InterceptName),
		SpendSummaries:       SpendSummaries(ds, design),
	}, nil
}

// Fingerprint hashes the dataset's header and cells in order.
func Fingerprint(ds dataset.Dataset) core.Hash {
	parts := make([]string, 0, len(ds.Columns)*(ds.Len()+1))
	parts = append(parts, ds.Columns...)
	for i := 0; i < ds.Len(); i++ {
		for _, c := range ds.Columns {
			parts = append(parts, ds.Get(i, c).String())
		}
	}
	return core.NewHashOf(parts...)
}
