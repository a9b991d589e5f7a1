package ts

// helpers closes every file generated with the framework types. The
// container cases of PopulatedValue and PopulatedChild mirror the
// containers kept by gen.Populate, so both agree on the populated shape.
const helpers = `/**
 * Check if a property on a document is populated:
 * ` + "```" + `
 * import { IsPopulated } from "../interfaces/mongoose.gen.ts"
 *
 * if (IsPopulated<UserDocument["bestFriend"]>) { ... }
 * ` + "```" + `
 */
export function IsPopulated<T>(doc: T | mongoose.Types.ObjectId): doc is T {
  return doc instanceof mongoose.Document;
}

/**
 * Helper type used by ` + "`PopulatedDocument`" + `. Returns the parent property of a string
 * representing a nested property (i.e. ` + "`friend.user` -> `friend`" + `)
 */
type ParentProperty<T> = T extends ` + "`${infer P}.${string}`" + ` ? P : never;

/**
 * Helper type used by ` + "`PopulatedDocument`" + `. Returns the child property of a string
 * representing a nested property (i.e. ` + "`friend.user` -> `user`" + `).
 */
type ChildProperty<T> = T extends ` + "`${string}.${infer C}`" + ` ? C : never;

/**
 * Helper type used by ` + "`PopulatedProperty`" + `. Removes the ` + "`ObjectId`" + ` from the general union type generated
 * for ref documents, inside arrays and maps too (i.e. ` + "`mongoose.Types.ObjectId | UserDocument` -> `UserDocument`" + `)
 */
type PopulatedValue<V> =
  V extends mongoose.Types.DocumentArray<infer U> ? mongoose.Types.DocumentArray<PopulatedValue<U>> :
  V extends mongoose.Types.Array<infer U> ? mongoose.Types.Array<PopulatedValue<U>> :
  V extends mongoose.Types.Map<infer U> ? mongoose.Types.Map<PopulatedValue<U>> :
  V extends Array<infer U> ? Array<PopulatedValue<U>> :
  V extends Map<infer K, infer U> ? Map<K, PopulatedValue<U>> :
  Exclude<V, mongoose.Types.ObjectId>;

/**
 * Helper type used by ` + "`PopulatedDocument`" + `. Replaces the ref property ` + "`T`" + ` of ` + "`Root`" + ` with the populated document.
 */
type PopulatedProperty<Root, T extends keyof Root> = Omit<Root, T> & {
  [ref in T]: PopulatedValue<Root[T]>
}

/**
 * Helper type used by ` + "`PopulatedDocument`" + `. Populates the remaining path in a nested value,
 * inside arrays and maps too.
 */
type PopulatedChild<V, T> =
  V extends mongoose.Types.DocumentArray<infer U> ? mongoose.Types.DocumentArray<PopulatedDocument<U, T>> :
  V extends mongoose.Types.Array<infer U> ? mongoose.Types.Array<PopulatedChild<U, T>> :
  V extends mongoose.Types.Map<infer U> ? mongoose.Types.Map<PopulatedChild<U, T>> :
  V extends Array<infer U> ? Array<PopulatedChild<U, T>> :
  V extends Map<infer K, infer U> ? Map<K, PopulatedChild<U, T>> :
  PopulatedDocument<V, T>;

/**
 * Populate properties on a document type:
 * ` + "```" + `
 * import { PopulatedDocument } from "../interfaces/mongoose.gen.ts"
 *
 * function example(user: PopulatedDocument<UserDocument, "bestFriend">) {
 *   console.log(user.bestFriend._id) // typescript knows this is populated
 * }
 * ` + "```" + `
 */
export type PopulatedDocument<
DocType,
T
> = T extends keyof DocType
? PopulatedProperty<DocType, T>
: (
    ParentProperty<T> extends keyof DocType
      ? Omit<DocType, ParentProperty<T>> &
      {
        [ref in ParentProperty<T>]: PopulatedChild<DocType[ParentProperty<T>], ChildProperty<T>>
      }
      : DocType
  )

/**
 * Helper types used by the populate overloads
 */
type Unarray<T> = T extends Array<infer U> ? U : T;
type Modify<T, R> = Omit<T, keyof R> & R;

/**
 * Augment mongoose with Query.populate overloads
 */
declare module "mongoose" {
  interface Query<ResultType, DocType, THelpers = {}> {
    populate<T extends string>(path: T, select?: string | any, model?: string | Model<any, THelpers>, match?: any): Query<
      ResultType extends Array<DocType> ? Array<PopulatedDocument<Unarray<ResultType>, T>> : (ResultType extends DocType ? PopulatedDocument<Unarray<ResultType>, T> : ResultType),
      DocType,
      THelpers
    > & THelpers;

    populate<T extends string>(options: Modify<PopulateOptions, { path: T }> | Array<PopulateOptions>): Query<
      ResultType extends Array<DocType> ? Array<PopulatedDocument<Unarray<ResultType>, T>> : (ResultType extends DocType ? PopulatedDocument<Unarray<ResultType>, T> : ResultType),
      DocType,
      THelpers
    > & THelpers;
  }
}
`
