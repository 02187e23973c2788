package advisor

// Variant is the text of a scenario at one level of detail.
type Variant struct {
	Explanation string
	Actions     []string
}

// Copy is the message catalog entry for one scenario. Variants are indexed
// by LOD-1.
type Copy struct {
	Title    string
	Variants [3]Variant
}

// Catalog holds the wording for every scenario.
var Catalog = map[Scenario]Copy{
	ScenarioStuckIndicator: {
		Title: "Stuck on some indicators",
		Variants: [3]Variant{
			{
				Explanation: "Some indicators are still below the passing standard and need attention.",
				Actions:     []string{"Open the indicators you are stuck on"},
			},
			{
				Explanation: "You have practised some indicators several times, but accuracy is still low, so the current approach is not breaking through.",
				Actions: []string{
					"Review the indicators below the pass line",
					"Check whether mistakes cluster in certain item types or concepts",
				},
			},
			{
				Explanation: "Items you keep getting wrong after repeated practice point to a specific concept or solution step you are stuck on.",
				Actions: []string{
					"Walk through the solution steps of each wrong item",
					"Flag repeatedly missed items for another round",
					"Slow down and check your answers",
				},
			},
		},
	},
	ScenarioCorrectNotFluent: {
		Title: "Correct, but not yet fluent",
		Variants: [3]Variant{
			{
				Explanation: "Overall results are good, with room to sharpen.",
				Actions:     []string{"Look at your answering speed"},
			},
			{
				Explanation: "Your accuracy meets the goal, but answering is slow, so fluency can still improve.",
				Actions: []string{
					"Review the indicators with long answer times",
					"Try timed practice",
				},
			},
			{
				Explanation: "Most items are answered correctly, but some item types take long, so the solution process is not yet internalised.",
				Actions: []string{
					"Do short, high-frequency practice rounds",
					"Write out the process for the slow item types",
				},
			},
		},
	},
	ScenarioFastLowAccuracy: {
		Title: "Fast answers, low accuracy",
		Variants: [3]Variant{
			{
				Explanation: "Your understanding may not be stable yet.",
				Actions:     []string{"Look at the related indicators"},
			},
			{
				Explanation: "Answers are fast but accuracy is low, which may indicate guessing.",
				Actions: []string{
					"Check whether mistakes cluster in certain item types",
					"Watch how answer time relates to accuracy",
				},
			},
			{
				Explanation: "Some items were answered too quickly and wrong; re-read what each item asks before answering.",
				Actions: []string{
					"Check the conditions of each item",
					"Practise writing out complete solution steps",
				},
			},
		},
	},
	ScenarioBelowClass: {
		Title: "Some indicators are below the class average",
		Variants: [3]Variant{
			{
				Explanation: "Some indicators are below the class average.",
				Actions:     []string{"Open the indicators that lag behind"},
			},
			{
				Explanation: "There is a gap between you and the class on some indicators that is worth a closer look.",
				Actions:     []string{"Compare the indicators with the largest gap to the class"},
			},
			{
				Explanation: "Wrong items on these indicators are the first places to reinforce.",
				Actions:     []string{"List the wrong items on indicators below the class average"},
			},
		},
	},
	ScenarioGoalReached: {
		Title: "Current learning goal reached",
		Variants: [3]Variant{
			{
				Explanation: "Overall learning is in good shape.",
				Actions:     []string{"Keep up your learning rhythm"},
			},
			{
				Explanation: "All indicators have reached the learning goal, so your strategy is working.",
				Actions:     []string{"Try a new learning unit"},
			},
			{
				Explanation: "You complete items reliably and can move on to advanced or challenge items.",
				Actions:     []string{"Take on hard or cross-unit items"},
			},
		},
	},
	ScenarioStable: {
		Title: "Learning is stable",
		Variants: [3]Variant{
			{
				Explanation: "No clear learning risk was detected; keep watching how your performance changes.",
				Actions:     []string{"Check your learning status regularly"},
			},
			{
				Explanation: "Accuracy and speed show no warning signs; keep following how each indicator develops.",
				Actions:     []string{"Review your indicator trends each week"},
			},
			{
				Explanation: "No item-level pattern stands out, so keep a steady routine and note any items that start to slip.",
				Actions: []string{
					"Keep a steady practice schedule",
					"Note items that start to go wrong",
				},
			},
		},
	},
}
