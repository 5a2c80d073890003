package main

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"fitagent/agent"
	"fitagent/bulk"
	"fitagent/gateway"
	"fitagent/resolve"
)

var mealCmd = &cobra.Command{
	Use:   "meal [type]",
	Short: "Logs a meal (Breakfast, Lunch, Dinner, or Snack) for a date",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		facade, err := newFacade()
		if err != nil {
			return err
		}

		mealType, err := parseMealType(args[0])
		if err != nil {
			return err
		}

		result, err := facade.LogMeal(cmd.Context(), caller(), flagDate, mealType, flagNotes)
		if err != nil {
			return fmt.Errorf("failed to log meal: %w", err)
		}

		if result.NeedsClarification() {
			fmt.Println(color.New(color.FgYellow, color.Bold).Sprintf("❓ %s on %s already has %d item(s); add to it or replace it?", result.Meal.MealType, result.Meal.LogDate, len(result.Existing)))
			return nil
		}
		if result.Created {
			fmt.Printf("✅ Logged %s %d on %s\n", result.Meal.MealType, result.Meal.ID, result.Meal.LogDate)
			return nil
		}
		fmt.Printf("✅ Reusing empty %s %d on %s\n", result.Meal.MealType, result.Meal.ID, result.Meal.LogDate)
		return nil
	},
}

var addFoodCmd = &cobra.Command{
	Use:   "add-food [meal-id] [name]...",
	Short: "Attaches foods to a meal by name",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		facade, err := newFacade()
		if err != nil {
			return err
		}

		mealID, err := parseID(args[0])
		if err != nil {
			return err
		}

		requests := make([]agent.FoodRequest, 0, len(args)-1)
		for _, name := range args[1:] {
			requests = append(requests, agent.FoodRequest{Name: name, Servings: flagServings})
		}

		result, err := facade.AddFoods(cmd.Context(), caller(), mealID, requests)
		if err != nil {
			return fmt.Errorf("failed to add foods: %w", err)
		}

		for _, outcome := range result.Outcomes {
			switch outcome.State {
			case resolve.Resolved.String():
				if outcome.Reason != "" {
					fmt.Println(color.New(color.FgRed).Sprintf("✗ %s: %s", outcome.Query, outcome.Reason))
					continue
				}
				fmt.Printf("✅ %s attached (%.1f servings)\n", outcome.Query, outcome.Detail.NumberOfServings)
			case resolve.Ambiguous.String():
				fmt.Println(color.New(color.FgYellow, color.Bold).Sprintf("❓ %q matches several foods:", outcome.Query))
				for _, c := range outcome.Candidates {
					fmt.Printf("  • %s\n", c.Name)
				}
			default:
				fmt.Println(color.New(color.FgRed).Sprintf("✗ no food matches %q", outcome.Query))
			}
		}
		return nil
	},
}

var removeFoodCmd = &cobra.Command{
	Use:   "remove-food [meal-id] [name]",
	Short: "Removes a food from a meal by name",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		facade, err := newFacade()
		if err != nil {
			return err
		}

		mealID, err := parseID(args[0])
		if err != nil {
			return err
		}

		result, err := facade.RemoveFood(cmd.Context(), caller(), mealID, args[1])
		if err != nil {
			return fmt.Errorf("failed to remove food: %w", err)
		}

		switch result.State {
		case resolve.Resolved.String():
			fmt.Printf("✅ Removed %s from meal %d\n", args[1], mealID)
		case resolve.Ambiguous.String():
			fmt.Println(color.New(color.FgYellow, color.Bold).Sprintf("❓ %q matches several foods:", args[1]))
			for _, c := range result.Candidates {
				fmt.Printf("  • %s\n", c.Name)
			}
		default:
			fmt.Println(color.New(color.FgRed).Sprintf("✗ %q is not on meal %d", args[1], mealID))
		}
		return nil
	},
}

var deleteMealsCmd = &cobra.Command{
	Use:   "delete-meals [id]...",
	Short: "Deletes meals by id, or by date range with --from/--to",
	RunE: func(cmd *cobra.Command, args []string) error {
		facade, err := newFacade()
		if err != nil {
			return err
		}

		var result bulk.Result
		if flagFrom != "" || flagTo != "" {
			res, err := facade.DeleteMealRange(cmd.Context(), caller(), flagFrom, flagTo)
			if err != nil {
				return fmt.Errorf("failed to delete meals: %w", err)
			}
			result = res
		} else {
			ids, err := parseIDs(args)
			if err != nil {
				return err
			}
			res, err := facade.DeleteMeals(cmd.Context(), caller(), ids)
			if err != nil {
				return fmt.Errorf("failed to delete meals: %w", err)
			}
			result = res
		}

		printBulkResult(result)
		return nil
	},
}

func parseMealType(s string) (gateway.MealType, error) {
	switch strings.ToLower(s) {
	case "breakfast":
		return gateway.MealBreakfast, nil
	case "lunch":
		return gateway.MealLunch, nil
	case "dinner":
		return gateway.MealDinner, nil
	case "snack":
		return gateway.MealSnack, nil
	}
	return "", fmt.Errorf("unknown meal type %q", s)
}

func init() {
	rootCmd.AddCommand(mealCmd, addFoodCmd, removeFoodCmd, deleteMealsCmd)

	mealCmd.Flags().StringVar(&flagDate, "date", today(), "Meal date (YYYY-MM-DD)")
	mealCmd.Flags().StringVar(&flagNotes, "notes", "", "Meal notes")
	addFoodCmd.Flags().Float64Var(&flagServings, "servings", 1, "Number of servings for each food")
	deleteMealsCmd.Flags().StringVar(&flagFrom, "from", "", "Range start (YYYY-MM-DD)")
	deleteMealsCmd.Flags().StringVar(&flagTo, "to", "", "Range end (YYYY-MM-DD)")
}
